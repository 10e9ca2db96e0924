package bootstrap

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRecord = "enr:-MG4QGk5z8hpTrGM3uosvLuGmdL381IMXvmeBJBRxJUreV_cemmE-cJ6ftJRggPjM_tX6uhSEsO3mbqYpaSVTx4aYdYHh2F0dG5ldHOIAAAAAIABAACDY2djgYCEZXRoMpCBABMacJN1RAABAAAAAAAAgmlkgnY0gmlwhKdHDm2DbmZkhDafifeJc2VjcDI1NmsxoQN2BhqrvYI0XsXGaCnPcgLDwrwIL_szGrhtPGtb9_-AeYN0Y3CCIyiDdWRwgiMo"

// testPeerID returns a freshly generated, valid overlay identity.
func testPeerID(t *testing.T) peer.ID {
	t.Helper()

	priv, _, err := crypto.GenerateSecp256k1Key(rand.Reader)
	require.NoError(t, err)

	id, err := peer.IDFromPrivateKey(priv)
	require.NoError(t, err)

	return id
}

func TestUnwrapListItem(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "quoted list item", in: `- "enr:-Iu4QK"`, want: "enr:-Iu4QK"},
		{name: "bare entry", in: "enr:-Iu4QK", want: "enr:-Iu4QK"},
		{name: "unquoted list item", in: "- enr:-Iu4QK", want: "- enr:-Iu4QK"},
		{name: "trailing garbage", in: `- "enr:-Iu4QK" extra`, want: `- "enr:-Iu4QK" extra`},
		{name: "embedded quote", in: `- "a"b"`, want: `- "a"b"`},
		{name: "empty quotes", in: `- ""`, want: ""},
		{name: "dash only", in: "-", want: "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnwrapListItem(tt.in))
		})
	}
}

func TestParseEntry(t *testing.T) {
	overlayAddr := fmt.Sprintf("/ip4/127.0.0.1/tcp/9000/p2p/%s", testPeerID(t))
	discoveryAddr := fmt.Sprintf("/ip4/127.0.0.1/udp/9000/p2p/%s", testPeerID(t))

	tests := []struct {
		name    string
		entry   string
		wantErr bool
		checks  func(t *testing.T, address Address)
	}{
		{
			name:  "discovery record",
			entry: testRecord,
			checks: func(t *testing.T, address Address) {
				t.Helper()

				record, ok := address.(RecordAddress)
				require.True(t, ok)
				assert.Equal(t, testRecord, record.String())
			},
		},
		{
			name:  "overlay multiaddress",
			entry: overlayAddr,
			checks: func(t *testing.T, address Address) {
				t.Helper()

				multi, ok := address.(MultiAddress)
				require.True(t, ok)
				assert.True(t, IsOverlayAddr(multi.Addr))
				assert.False(t, IsDiscoveryAddr(multi.Addr))
				assert.Equal(t, overlayAddr, multi.String())
			},
		},
		{
			name:  "discovery multiaddress",
			entry: discoveryAddr,
			checks: func(t *testing.T, address Address) {
				t.Helper()

				multi, ok := address.(MultiAddress)
				require.True(t, ok)
				assert.True(t, IsDiscoveryAddr(multi.Addr))
				assert.False(t, IsOverlayAddr(multi.Addr))
			},
		},
		{
			name:    "malformed record",
			entry:   "enr:-Iu4QK",
			wantErr: true,
		},
		{
			name:    "multiaddress without identity",
			entry:   "/ip4/127.0.0.1/tcp/9000",
			wantErr: true,
		},
		{
			name:    "junk",
			entry:   "junk",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			address, err := ParseEntry(tt.entry)

			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)

			if tt.checks != nil {
				tt.checks(t, address)
			}
		})
	}
}

// The loader unwraps YAML list items before classification, so a
// wrapped entry and its bare form parse identically.
func TestUnwrapThenParseRoundTrip(t *testing.T) {
	wrapped := UnwrapListItem(fmt.Sprintf(`- "%s"`, testRecord))

	fromWrapped, err := ParseEntry(wrapped)
	require.NoError(t, err)

	fromBare, err := ParseEntry(testRecord)
	require.NoError(t, err)

	assert.Equal(t, fromBare.String(), fromWrapped.String())
}

func TestLoad(t *testing.T) {
	overlayAddr := fmt.Sprintf("/ip4/10.0.0.1/tcp/13000/p2p/%s", testPeerID(t))

	dir := t.TempDir()
	path := filepath.Join(dir, "bootnodes.txt")

	content := fmt.Sprintf("- \"%s\"\r\n\r\njunk\n%s\n", testRecord, overlayAddr)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	logger, hook := test.NewNullLogger()

	addresses, err := Load(logger, path, nil)
	require.NoError(t, err)

	// The record and the multiaddress survive; the junk line only
	// produces a warning.
	require.Len(t, addresses, 2)

	warnings := 0

	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}

	assert.Equal(t, 1, warnings)
}

func TestLoadAppendsCommandLineEntries(t *testing.T) {
	logger, _ := test.NewNullLogger()

	addresses, err := Load(logger, "", []string{testRecord})
	require.NoError(t, err)
	require.Len(t, addresses, 1)

	_, ok := addresses[0].(RecordAddress)
	assert.True(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := Load(logger, "/does/not/exist", nil)
	require.Error(t, err)
}

func TestPredicates(t *testing.T) {
	both, err := ma.NewMultiaddr(fmt.Sprintf("/ip4/1.2.3.4/tcp/9000/p2p/%s", testPeerID(t)))
	require.NoError(t, err)

	assert.True(t, IsOverlayAddr(both))
	assert.False(t, IsDiscoveryAddr(both))

	bare, err := ma.NewMultiaddr("/ip4/1.2.3.4/udp/9000")
	require.NoError(t, err)

	assert.False(t, IsOverlayAddr(bare))
	assert.False(t, IsDiscoveryAddr(bare))
}
