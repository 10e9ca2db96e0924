package discovery

import (
	"crypto/rand"
	"testing"

	gcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/inspector/pkg/enr"
)

// A peer identity derived from a record maps back to that record's
// node ID.
func TestPeerIDToNodeIDRoundTrip(t *testing.T) {
	record, err := enr.Parse(fullRecord)
	require.NoError(t, err)

	p, err := FromRecord(record)
	require.NoError(t, err)

	nodeID, err := PeerIDToNodeID(p.AddrInfo.ID)
	require.NoError(t, err)

	assert.Equal(t, record.Node().ID(), nodeID)
}

func TestPeerIDToNodeIDFromGeneratedKey(t *testing.T) {
	ethKey, err := gcrypto.GenerateKey()
	require.NoError(t, err)

	secpPriv, err := crypto.UnmarshalSecp256k1PrivateKey(gcrypto.FromECDSA(ethKey))
	require.NoError(t, err)

	pid, err := peer.IDFromPrivateKey(secpPriv)
	require.NoError(t, err)

	nodeID, err := PeerIDToNodeID(pid)
	require.NoError(t, err)

	assert.Equal(t, enode.PubkeyToIDV4(&ethKey.PublicKey), nodeID)
}

func TestPeerIDToNodeIDNonSecp256k1(t *testing.T) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)

	pid, err := peer.IDFromPrivateKey(priv)
	require.NoError(t, err)

	_, err = PeerIDToNodeID(pid)
	require.Error(t, err)
}
