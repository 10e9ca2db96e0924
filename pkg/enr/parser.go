package enr

import (
	"net"

	"github.com/ethereum/go-ethereum/p2p/enode"
	gethenr "github.com/ethereum/go-ethereum/p2p/enr"
	"github.com/pkg/errors"
)

// s256raw is the raw secp256k1 public key field of a record.
type s256raw []byte

func (s256raw) ENRKey() string { return "secp256k1" }

// eth2 is the SSZ-encoded fork identifier field.
type eth2 []byte

func (eth2) ENRKey() string { return "eth2" }

// attnets is the attestation subnet bitvector field.
type attnets []byte

func (attnets) ENRKey() string { return "attnets" }

// Parse parses a textual "enr:" record and extracts every field the
// inspector uses.
func Parse(record string) (*Record, error) {
	n, err := enode.Parse(enode.ValidSchemes, record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse enr")
	}

	return FromNode(n, record), nil
}

// FromNode builds a Record from an already-parsed node. The enr
// argument is the textual form when known, empty otherwise.
func FromNode(n *enode.Node, enr string) *Record {
	if enr == "" {
		enr = n.String()
	}

	return &Record{
		Enr:       enr,
		Secp256k1: parseSecp256k1(n),
		IP4:       parseIP4(n),
		IP6:       parseIP6(n),
		TCP4:      parseTCP4(n),
		TCP6:      parseTCP6(n),
		UDP4:      parseUDP4(n),
		UDP6:      parseUDP6(n),
		Eth2:      parseEth2(n),
		Attnets:   parseAttnets(n),
		node:      n,
	}
}

func parseSecp256k1(node *enode.Node) *[]byte {
	field := s256raw{}
	if err := node.Record().Load(&field); err != nil {
		return nil
	}

	f := []byte(field)

	return &f
}

func parseIP4(node *enode.Node) *string {
	ip := node.IP()
	if ip == nil || ip.To4() == nil || ip.IsUnspecified() {
		return nil
	}

	f := ip.String()

	return &f
}

func parseIP6(node *enode.Node) *string {
	var field gethenr.IPv6

	if err := node.Record().Load(&field); err != nil {
		return nil
	}

	ip := net.IP(field)
	if ip.IsUnspecified() || ip.String() == "<nil>" {
		return nil
	}

	f := ip.String()

	return &f
}

func parseTCP4(node *enode.Node) *uint32 {
	tcp := node.TCP()
	if tcp == 0 {
		return nil
	}

	field := uint32(tcp) //nolint:gosec // port range.

	return &field
}

func parseTCP6(node *enode.Node) *uint32 {
	var field gethenr.TCP6

	if err := node.Record().Load(&field); err != nil {
		return nil
	}

	f := uint32(field)
	if f == 0 {
		return nil
	}

	return &f
}

func parseUDP4(node *enode.Node) *uint32 {
	udp := node.UDP()
	if udp == 0 {
		return nil
	}

	field := uint32(udp) //nolint:gosec // port range.

	return &field
}

func parseUDP6(node *enode.Node) *uint32 {
	var field gethenr.UDP6

	if err := node.Record().Load(&field); err != nil {
		return nil
	}

	f := uint32(field)
	if f == 0 {
		return nil
	}

	return &f
}

func parseEth2(node *enode.Node) *[]byte {
	field := eth2{}
	if err := node.Record().Load(&field); err != nil {
		return nil
	}

	f := []byte(field)

	return &f
}

func parseAttnets(node *enode.Node) *[]byte {
	field := attnets{}
	if err := node.Record().Load(&field); err != nil {
		return nil
	}

	f := []byte(field)

	return &f
}
