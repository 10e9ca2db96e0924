package discovery

import (
	"context"
	"crypto/ecdsa"
	"net"
	"sync"

	"github.com/ethereum/go-ethereum/p2p/discover"
	"github.com/ethereum/go-ethereum/p2p/enode"
	gethenr "github.com/ethereum/go-ethereum/p2p/enr"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/inspector/pkg/enr"
)

// Config configures the discv5 listener.
type Config struct {
	// BindIP is the UDP listen address.
	BindIP net.IP
	// Port is the UDP listen port.
	Port int
	// PrivKey identifies the local node. The same key identifies the
	// overlay peer; it is owned by the caller and never logged.
	PrivKey *ecdsa.PrivateKey
	// Bootnodes seed the discovery table.
	Bootnodes []*enode.Node
	// FieldPair, when set, is published on the local record so other
	// nodes can place us on the right overlay.
	FieldPair *enr.FieldPair
}

func (c *Config) Validate() error {
	if c.BindIP == nil {
		return errors.New("bind IP is required")
	}

	if c.PrivKey == nil {
		return errors.New("private key is required")
	}

	return nil
}

// DiscV5 is a NodeFinder backed by a UDP discv5 listener.
type DiscV5 struct {
	log      logrus.FieldLogger
	config   *Config
	listener *ListenerV5
	mu       sync.Mutex
}

// ListenerV5 holds the socket, local node and protocol handle of one
// discv5 session.
type ListenerV5 struct {
	conn      *net.UDPConn
	localNode *enode.LocalNode
	discovery *discover.UDPv5
	mu        sync.Mutex
}

func NewDiscV5(log logrus.FieldLogger, config *Config) *DiscV5 {
	return &DiscV5{
		log:    log.WithField("module", "discovery/discV5"),
		config: config,
	}
}

func (d *DiscV5) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.listener != nil {
		return nil
	}

	if err := d.config.Validate(); err != nil {
		return err
	}

	listener, err := d.createListener()
	if err != nil {
		return err
	}

	d.listener = listener

	d.log.WithField("ENR", listener.discovery.Self().String()).Info("Started discovery v5")

	return nil
}

func (d *DiscV5) Stop(_ context.Context) error {
	d.mu.Lock()
	listener := d.listener
	d.listener = nil
	d.mu.Unlock()

	if listener != nil {
		return listener.Close()
	}

	return nil
}

// Self returns the local node record, or nil before Start.
func (d *DiscV5) Self() *enode.Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.listener == nil {
		return nil
	}

	return d.listener.discovery.Self()
}

// RandomNodes draws up to n nodes from a fresh random-walk iterator.
// The iterator is closed when the context is canceled, unblocking the
// read.
func (d *DiscV5) RandomNodes(ctx context.Context, n int) ([]*enode.Node, error) {
	d.mu.Lock()
	listener := d.listener
	d.mu.Unlock()

	if listener == nil || listener.discovery == nil {
		return nil, errors.New("discovery is not running")
	}

	if n <= 0 {
		return nil, nil
	}

	iterator := enode.Filter(listener.discovery.RandomNodes(), d.filterNode)
	defer iterator.Close()

	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			iterator.Close()
		case <-done:
		}
	}()

	nodes := enode.ReadNodes(iterator, n)

	close(done)

	return nodes, ctx.Err()
}

// Resolve runs a lookup for the given node ID and returns the matching
// node, or nil when the lookup finishes without finding it.
func (d *DiscV5) Resolve(_ context.Context, id enode.ID) (*enode.Node, error) {
	d.mu.Lock()
	listener := d.listener
	d.mu.Unlock()

	if listener == nil || listener.discovery == nil {
		return nil, errors.New("discovery is not running")
	}

	for _, node := range listener.discovery.Lookup(id) {
		if node.ID() == id {
			return node, nil
		}
	}

	return nil, nil
}

func (d *DiscV5) createListener() (*ListenerV5, error) {
	listener := &ListenerV5{}

	udpAddr := &net.UDPAddr{
		IP:   d.config.BindIP,
		Port: d.config.Port,
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to listen on udp")
	}

	listener.conn = conn

	localNode, err := d.createLocalNode()
	if err != nil {
		conn.Close()

		return nil, err
	}

	listener.localNode = localNode

	dv5Cfg := discover.Config{
		PrivateKey: d.config.PrivKey,
		Bootnodes:  append([]*enode.Node{}, d.config.Bootnodes...),
	}

	discovery, err := discover.ListenV5(conn, localNode, dv5Cfg)
	if err != nil {
		listener.Close()

		return nil, errors.Wrap(err, "failed to start discv5 listener")
	}

	listener.discovery = discovery

	return listener, nil
}

func (d *DiscV5) createLocalNode() (*enode.LocalNode, error) {
	db, err := enode.OpenDB("")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open node database")
	}

	localNode := enode.NewLocalNode(db, d.config.PrivKey)

	localNode.Set(gethenr.IP(d.config.BindIP))
	localNode.Set(gethenr.UDP(d.config.Port)) //nolint:gosec // port range.
	localNode.SetFallbackIP(d.config.BindIP)
	localNode.SetFallbackUDP(d.config.Port)

	if d.config.FieldPair != nil {
		localNode.Set(gethenr.WithEntry("eth2", d.config.FieldPair.Eth2))
		localNode.Set(gethenr.WithEntry("attnets", d.config.FieldPair.Attnets))
	}

	return localNode, nil
}

func (d *DiscV5) filterNode(node *enode.Node) bool {
	if node == nil {
		return false
	}

	if node.IP() == nil {
		return false
	}

	d.mu.Lock()
	listener := d.listener
	d.mu.Unlock()

	if listener != nil && listener.localNode != nil && node.ID() == listener.localNode.ID() {
		return false
	}

	return true
}

func (l *ListenerV5) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.discovery != nil {
		l.discovery.Close()
	}

	if l.localNode != nil && l.localNode.Database() != nil {
		l.localNode.Database().Close()
		l.localNode = nil
	}

	if l.conn != nil {
		return l.conn.Close()
	}

	return nil
}
