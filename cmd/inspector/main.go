package main

import (
	"os"

	"github.com/ethpandaops/inspector/cmd/inspector/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
