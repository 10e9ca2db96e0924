// Package host wraps the libp2p host: one secp256k1 identity, a TCP
// listener, and connection lifecycle notifications.
package host

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"

	"github.com/chuckpreslar/emission"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	gcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/libp2p/go-libp2p"
	mplex "github.com/libp2p/go-libp2p-mplex"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	rcmgr "github.com/libp2p/go-libp2p/p2p/host/resource-manager"
	"github.com/libp2p/go-libp2p/p2p/security/noise"
	"github.com/libp2p/go-libp2p/p2p/transport/tcp"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config is the configuration for the overlay host.
type Config struct {
	IPAddr  net.IP
	TCPPort int
	PrivKey string
}

// Validate validates the host config.
func (c *Config) Validate() error {
	if c.IPAddr == nil {
		return errors.New("ipAddr is required")
	}

	return nil
}

// Node owns the libp2p host and its identity key.
type Node struct {
	log logrus.FieldLogger

	config    *Config
	userAgent string

	host host.Host

	broker *emission.Emitter

	DerivedPrivKey *crypto.Secp256k1PrivateKey

	metrics *Metrics
}

func NewNode(log logrus.FieldLogger, config *Config, userAgent string) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Node{
		log:       log.WithField("module", "host"),
		config:    config,
		broker:    emission.NewEmitter(),
		userAgent: userAgent,
		metrics:   NewMetrics(),
	}, nil
}

func (n *Node) Start(ctx context.Context) (host.Host, error) {
	n.log.WithFields(logrus.Fields{
		"ipAddr":  n.config.IPAddr,
		"tcpPort": n.config.TCPPort,
	}).Info("Starting host")

	addrStrings := []string{
		fmt.Sprintf("/ip4/%s/tcp/%d", n.config.IPAddr.String(), n.config.TCPPort),
	}

	if _, err := n.derivePrivateKey(); err != nil {
		return nil, errors.Wrap(err, "failed to derive private key")
	}

	rmgr, err := rcmgr.NewResourceManager(
		rcmgr.NewFixedLimiter(rcmgr.DefaultLimits.AutoScale()),
	)
	if err != nil {
		return nil, err
	}

	libp2pOptions := []libp2p.Option{
		libp2p.ListenAddrStrings(addrStrings...),
		libp2p.UserAgent(n.userAgent),
		libp2p.Transport(tcp.NewTCPTransport),
		libp2p.Muxer(mplex.ID, mplex.DefaultTransport),
		libp2p.DefaultMuxers,
		libp2p.Security(noise.ID, noise.New),
		libp2p.Ping(true),
		libp2p.DisableRelay(),
		libp2p.Identity(n.DerivedPrivKey),
		libp2p.ResourceManager(rmgr),
	}

	h, err := libp2p.New(libp2pOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create libp2p host")
	}

	h.Network().Notify(n)

	n.host = h

	n.log.WithField("peer", h.ID()).Info("Host started")

	return h, nil
}

func (n *Node) Stop(_ context.Context) error {
	if n.host == nil {
		return nil
	}

	return n.host.Close()
}

func (n *Node) Host() host.Host {
	return n.host
}

func (n *Node) Connectedness(p peer.ID) network.Connectedness {
	return n.host.Network().Connectedness(p)
}

func (n *Node) ConnectToPeer(ctx context.Context, p peer.AddrInfo) error {
	n.log.WithField("peer", p.ID).Debug("Connecting to peer")

	return n.host.Connect(ctx, p)
}

// EthereumKey returns the host identity as an ECDSA key on the
// secp256k1 curve, the form the discovery layer expects.
func (n *Node) EthereumKey() (*ecdsa.PrivateKey, error) {
	key, err := n.derivePrivateKey()
	if err != nil {
		return nil, err
	}

	raw, err := key.Raw()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get raw private key")
	}

	ethKey, err := gcrypto.ToECDSA(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert private key")
	}

	return ethKey, nil
}

func (n *Node) derivePrivateKey() (*crypto.Secp256k1PrivateKey, error) {
	if n.DerivedPrivKey != nil {
		return n.DerivedPrivKey, nil
	}

	var err error

	var privBytes []byte

	if n.config.PrivKey == "" {
		key, errr := ecdsa.GenerateKey(gcrypto.S256(), rand.Reader)
		if errr != nil {
			return nil, errors.Wrap(errr, "failed to generate key")
		}

		privBytes = gcrypto.FromECDSA(key)
		if len(privBytes) != secp256k1.PrivKeyBytesLen {
			return nil, errors.Errorf("expected secp256k1 data size to be %d", secp256k1.PrivKeyBytesLen)
		}
	} else {
		privBytes, err = hex.DecodeString(n.config.PrivKey)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode private key")
		}
	}

	n.DerivedPrivKey = (*crypto.Secp256k1PrivateKey)(secp256k1.PrivKeyFromBytes(privBytes))

	if n.config.PrivKey == "" {
		n.config.PrivKey = hex.EncodeToString(privBytes)
	}

	return n.DerivedPrivKey, nil
}

func (n *Node) Connected(net network.Network, conn network.Conn) {
	n.metrics.PeerConnectsTotal.Inc()

	n.log.WithField("peer", conn.RemotePeer()).Debug("Connected to peer")

	n.emitAfterPeerConnect(net, conn)
}

func (n *Node) Disconnected(net network.Network, conn network.Conn) {
	n.metrics.PeerDisconnectsTotal.Inc()

	n.log.WithField("peer", conn.RemotePeer()).Debug("Disconnected from peer")

	n.emitAfterPeerDisconnect(net, conn)
}

func (n *Node) Listen(_ network.Network, addr ma.Multiaddr) {
	n.log.WithField("addr", addr).Info("Listening on address")
}

func (n *Node) ListenClose(_ network.Network, addr ma.Multiaddr) {
	n.log.WithField("addr", addr).Info("Stopped listening on address")
}
