package discovery

import (
	"crypto/rand"
	"fmt"
	"strings"
	"testing"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/inspector/pkg/enr"
)

const (
	// Record with ip4, tcp 9000 and udp 9000.
	fullRecord = "enr:-MG4QGk5z8hpTrGM3uosvLuGmdL381IMXvmeBJBRxJUreV_cemmE-cJ6ftJRggPjM_tX6uhSEsO3mbqYpaSVTx4aYdYHh2F0dG5ldHOIAAAAAIABAACDY2djgYCEZXRoMpCBABMacJN1RAABAAAAAAAAgmlkgnY0gmlwhKdHDm2DbmZkhDafifeJc2VjcDI1NmsxoQN2BhqrvYI0XsXGaCnPcgLDwrwIL_szGrhtPGtb9_-AeYN0Y3CCIyiDdWRwgiMo"

	// Record with ip4 and udp only.
	udpOnlyRecord = "enr:-IS4QHCYrYZbAKWCBRlAy5zzaDZXJBGkcnh4MHcBFZntXNFrdvJjX04jRzjzCBOonrkTfj499SZuOh8R33Ls8RRcy5wBgmlkgnY0gmlwhH8AAAGJc2VjcDI1NmsxoQPKY0yuDUmstAHYpMa2_oxVtw0RW_QAdpzBQA8yWM0xOIN1ZHCCdl8"
)

func TestFromRecord(t *testing.T) {
	record, err := enr.Parse(fullRecord)
	require.NoError(t, err)

	p, err := FromRecord(record)
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.NotEmpty(t, p.AddrInfo.ID)
	require.Len(t, p.AddrInfo.Addrs, 2)

	assert.True(t, p.HasTCP())
	assert.True(t, p.HasUDP())

	tcpFound := false
	udpFound := false

	for _, addr := range p.AddrInfo.Addrs {
		addrStr := addr.String()
		assert.Contains(t, addrStr, "/ip4/")

		if strings.Contains(addrStr, "/tcp/") {
			tcpFound = true
		}

		if strings.Contains(addrStr, "/udp/") {
			udpFound = true
		}
	}

	assert.True(t, tcpFound)
	assert.True(t, udpFound)
}

func TestFromRecordUDPOnly(t *testing.T) {
	record, err := enr.Parse(udpOnlyRecord)
	require.NoError(t, err)

	p, err := FromRecord(record)
	require.NoError(t, err)

	require.Len(t, p.AddrInfo.Addrs, 1)
	assert.False(t, p.HasTCP())
	assert.True(t, p.HasUDP())
}

func TestFromNodeNil(t *testing.T) {
	p, err := FromNode(nil)
	require.Error(t, err)
	require.Nil(t, p)
}

func TestFromMultiaddr(t *testing.T) {
	priv, _, err := crypto.GenerateSecp256k1Key(rand.Reader)
	require.NoError(t, err)

	id, err := peer.IDFromPrivateKey(priv)
	require.NoError(t, err)

	addr, err := ma.NewMultiaddr(fmt.Sprintf("/ip4/10.1.2.3/tcp/13000/p2p/%s", id))
	require.NoError(t, err)

	p, err := FromMultiaddr(addr)
	require.NoError(t, err)

	assert.Equal(t, id, p.AddrInfo.ID)
	require.Len(t, p.AddrInfo.Addrs, 1)
	assert.Equal(t, "/ip4/10.1.2.3/tcp/13000", p.AddrInfo.Addrs[0].String())
	assert.True(t, p.HasTCP())
	assert.Nil(t, p.Record)
}

func TestFromMultiaddrWithoutIdentity(t *testing.T) {
	addr, err := ma.NewMultiaddr("/ip4/10.1.2.3/tcp/13000")
	require.NoError(t, err)

	_, err = FromMultiaddr(addr)
	require.Error(t, err)
}
