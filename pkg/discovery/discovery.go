// Package discovery wraps the node-discovery protocol. The inspector
// pulls batches of random nodes from it to keep the peer population at
// its target, and resolves individual node IDs for peers first seen on
// the gossip overlay.
package discovery

import (
	"context"

	"github.com/ethereum/go-ethereum/p2p/enode"
)

// NodeFinder is a source of discovery nodes.
type NodeFinder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// RandomNodes returns up to n nodes drawn from the discovery
	// overlay.
	RandomNodes(ctx context.Context, n int) ([]*enode.Node, error)
	// Resolve looks up a single node by ID. A nil node with a nil
	// error means the lookup completed without finding the target.
	Resolve(ctx context.Context, id enode.ID) (*enode.Node, error)
}

var (
	_ NodeFinder = &DiscV5{}
	_ NodeFinder = &Manual{}
)
