package discovery

import (
	"fmt"
	"testing"

	gcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnodeFromMultiaddr(t *testing.T) {
	ethKey, err := gcrypto.GenerateKey()
	require.NoError(t, err)

	secpPriv, err := crypto.UnmarshalSecp256k1PrivateKey(gcrypto.FromECDSA(ethKey))
	require.NoError(t, err)

	pid, err := peer.IDFromPrivateKey(secpPriv)
	require.NoError(t, err)

	addr, err := ma.NewMultiaddr(fmt.Sprintf("/ip4/10.9.8.7/udp/12000/p2p/%s", pid))
	require.NoError(t, err)

	node, err := EnodeFromMultiaddr(addr)
	require.NoError(t, err)

	assert.Equal(t, enode.PubkeyToIDV4(&ethKey.PublicKey), node.ID())
	assert.Equal(t, "10.9.8.7", node.IP().String())
	assert.Equal(t, 12000, node.UDP())
}

func TestEnodeFromMultiaddrWithoutUDP(t *testing.T) {
	ethKey, err := gcrypto.GenerateKey()
	require.NoError(t, err)

	secpPriv, err := crypto.UnmarshalSecp256k1PrivateKey(gcrypto.FromECDSA(ethKey))
	require.NoError(t, err)

	pid, err := peer.IDFromPrivateKey(secpPriv)
	require.NoError(t, err)

	addr, err := ma.NewMultiaddr(fmt.Sprintf("/ip4/10.9.8.7/tcp/12000/p2p/%s", pid))
	require.NoError(t, err)

	_, err = EnodeFromMultiaddr(addr)
	require.Error(t, err)
}
