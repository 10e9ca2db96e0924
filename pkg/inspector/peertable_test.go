package inspector

import (
	"fmt"
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addrInfo(t *testing.T, id string, addr string) peer.AddrInfo {
	t.Helper()

	maddr, err := ma.NewMultiaddr(addr)
	require.NoError(t, err)

	return peer.AddrInfo{
		ID:    peer.ID(id),
		Addrs: []ma.Multiaddr{maddr},
	}
}

func TestPeerTable(t *testing.T) {
	table := NewPeerTable()

	assert.Equal(t, 0, table.Len())
	assert.False(t, table.Has(peer.ID("a")))

	table.Add(addrInfo(t, "a", "/ip4/1.2.3.4/tcp/9000"))

	assert.Equal(t, 1, table.Len())
	assert.True(t, table.Has(peer.ID("a")))

	info, ok := table.Get(peer.ID("a"))
	require.True(t, ok)
	assert.Equal(t, "/ip4/1.2.3.4/tcp/9000", info.Addrs[0].String())
}

// Entries are overwritten on re-insert and never evicted, so the table
// size only ever grows.
func TestPeerTableGrowsMonotonically(t *testing.T) {
	table := NewPeerTable()

	for i := 0; i < 10; i++ {
		table.Add(addrInfo(t, fmt.Sprintf("peer-%d", i), "/ip4/1.2.3.4/tcp/9000"))
		assert.Equal(t, i+1, table.Len())
	}

	// Enrichment overwrites in place.
	table.Add(addrInfo(t, "peer-0", "/ip4/5.6.7.8/tcp/9001"))
	assert.Equal(t, 10, table.Len())

	info, ok := table.Get(peer.ID("peer-0"))
	require.True(t, ok)
	assert.Equal(t, "/ip4/5.6.7.8/tcp/9001", info.Addrs[0].String())
}
