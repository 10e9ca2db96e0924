package discovery

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/p2p/enode"
)

// Manual is a NodeFinder over a fixed node set. It exists for tests
// and for runs where the discovery protocol is disabled but a static
// node list is still useful.
type Manual struct {
	mu    sync.Mutex
	nodes []*enode.Node
}

func NewManual(nodes ...*enode.Node) *Manual {
	return &Manual{nodes: append([]*enode.Node{}, nodes...)}
}

func (m *Manual) Start(_ context.Context) error {
	return nil
}

func (m *Manual) Stop(_ context.Context) error {
	return nil
}

// AddNode appends a node to the set.
func (m *Manual) AddNode(node *enode.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nodes = append(m.nodes, node)
}

// RandomNodes returns up to n nodes from the front of the set.
func (m *Manual) RandomNodes(_ context.Context, n int) ([]*enode.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n > len(m.nodes) {
		n = len(m.nodes)
	}

	if n <= 0 {
		return nil, nil
	}

	return append([]*enode.Node{}, m.nodes[:n]...), nil
}

// Resolve scans the set for an exact node ID match.
func (m *Manual) Resolve(_ context.Context, id enode.ID) (*enode.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, node := range m.nodes {
		if node.ID() == id {
			return node, nil
		}
	}

	return nil, nil
}
