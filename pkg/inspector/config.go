package inspector

import (
	"encoding/hex"
	"net"
	"strings"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"
	"github.com/protolambda/zrnt/eth2/beacon/common"
)

// Config is the full run configuration. Every field maps to a CLI
// option.
type Config struct {
	// FullPeerID renders complete peer identities in log output.
	FullPeerID bool

	// FloodSub and GossipSub select the pub/sub routing engine. Both
	// are accepted; the engine currently always runs gossipsub.
	FloodSub  bool
	GossipSub bool

	// ForkDigest is an optional 4-byte hex override. When set it wins
	// over whatever the bootstrap records advertise.
	ForkDigest string

	// Sign enables pub/sub envelope signing and verification.
	Sign bool

	// TopicCodes are the operator's short-code topic filters.
	TopicCodes []string
	// CustomTopics are subscribed verbatim, in addition to the
	// canonical set.
	CustomTopics []string

	// BootstrapFile is an optional newline-delimited bootstrap list.
	BootstrapFile string
	// Bootnodes are bootstrap entries given directly on the command
	// line.
	Bootnodes []string

	// Decode enables canonical SSZ decoding of received messages.
	Decode bool

	// DiscoveryPort is the UDP discovery listen port.
	DiscoveryPort int
	// EthPort is the TCP overlay listen port.
	EthPort int
	// BindAddress is the listen address as a bare IP multiaddress.
	BindAddress string

	// MaxPeers is the discovery target population.
	MaxPeers int
	// NoDiscovery disables the discovery loop entirely.
	NoDiscovery bool

	// PrivKey optionally fixes the identity key (hex). Generated when
	// empty.
	PrivKey string

	// DialTimeout is the shared deadline for each dial batch.
	DialTimeout time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		FloodSub:      true,
		DiscoveryPort: 9000,
		EthPort:       9000,
		BindAddress:   "/ip4/0.0.0.0",
		MaxPeers:      100,
		DialTimeout:   10 * time.Second,
	}
}

// Validate checks the statically checkable parts of the config.
func (c *Config) Validate() error {
	if _, err := c.BindIP(); err != nil {
		return err
	}

	if c.ForkDigest != "" {
		if _, err := c.ParseForkDigest(); err != nil {
			return err
		}
	}

	if c.MaxPeers <= 0 {
		return errors.New("maxPeers must be positive")
	}

	return nil
}

// BindIP extracts the IP from the bind multiaddress.
func (c *Config) BindIP() (net.IP, error) {
	addr, err := ma.NewMultiaddr(c.BindAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse bind address %s", c.BindAddress)
	}

	if v4, v4Err := addr.ValueForProtocol(ma.P_IP4); v4Err == nil {
		return net.ParseIP(v4), nil
	}

	if v6, v6Err := addr.ValueForProtocol(ma.P_IP6); v6Err == nil {
		return net.ParseIP(v6), nil
	}

	return nil, errors.Errorf("bind address %s carries no ip component", c.BindAddress)
}

// ParseForkDigest decodes the operator-supplied fork digest override.
func (c *Config) ParseForkDigest() (common.ForkDigest, error) {
	digest := common.ForkDigest{}

	raw := strings.TrimPrefix(c.ForkDigest, "0x")

	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return digest, errors.Wrapf(err, "failed to decode fork digest %s", c.ForkDigest)
	}

	if len(decoded) != len(digest) {
		return digest, errors.Errorf("fork digest must be %d bytes, got %d", len(digest), len(decoded))
	}

	copy(digest[:], decoded)

	return digest, nil
}
