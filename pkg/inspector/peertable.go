package inspector

import (
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
)

// PeerTable is the live peer table: every peer the dialer connected to
// or the resolver enriched. Entries are inserted or overwritten, never
// evicted; connection liveness is the transport's concern.
type PeerTable struct {
	mu    sync.RWMutex
	peers map[peer.ID]peer.AddrInfo
}

func NewPeerTable() *PeerTable {
	return &PeerTable{
		peers: make(map[peer.ID]peer.AddrInfo),
	}
}

// Add inserts or overwrites the entry for the peer.
func (t *PeerTable) Add(info peer.AddrInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.peers[info.ID] = info
}

// Get returns the entry for the peer, if present.
func (t *PeerTable) Get(id peer.ID) (peer.AddrInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, ok := t.peers[id]

	return info, ok
}

// Has reports whether the peer is present.
func (t *PeerTable) Has(id peer.ID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.peers[id]

	return ok
}

// Len returns the number of peers in the table.
func (t *PeerTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.peers)
}
