// Package inspector implements the passive gossip inspector: it joins
// the overlay via the bootstrap list and discovery, subscribes to the
// configured topics, and surfaces every received message as a
// structured log event.
package inspector

import (
	"context"
	"net"
	"time"

	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/go-co-op/gocron/v2"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/pkg/errors"
	"github.com/protolambda/zrnt/eth2/beacon/common"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/inspector/pkg/bootstrap"
	"github.com/ethpandaops/inspector/pkg/cache"
	"github.com/ethpandaops/inspector/pkg/decoder"
	"github.com/ethpandaops/inspector/pkg/discovery"
	"github.com/ethpandaops/inspector/pkg/enr"
	"github.com/ethpandaops/inspector/pkg/host"
	"github.com/ethpandaops/inspector/pkg/pubsub"
	"github.com/ethpandaops/inspector/pkg/topics"
)

const (
	userAgent = "ethpandaops/inspector"

	// dialQueueSize bounds the pending-dial channel. Discovery drops
	// with a warning when it fills up.
	dialQueueSize = 10000

	// resolveQueueSize bounds the enrichment queue; producers drop
	// silently when it is full.
	resolveQueueSize = 10

	// recentlyQueuedTTL is how long a discovered node is suppressed
	// from re-entering the dial queue.
	recentlyQueuedTTL = time.Minute
)

// Inspector owns all run state: the identity key, the host, the
// pub/sub engine, the queues, the live peer table, and the discovery
// handle.
type Inspector struct {
	log    logrus.FieldLogger
	config *Config

	node   *host.Node
	engine *pubsub.Engine
	finder discovery.NodeFinder

	scheduler gocron.Scheduler

	peers          *PeerTable
	dialQueue      chan *discovery.ConnectablePeer
	resolveQueue   chan peer.ID
	recentlyQueued *cache.DuplicateCache[enode.ID, struct{}]

	decoder *decoder.Decoder
	metrics *Metrics

	forkDigest common.ForkDigest
	fieldPair  *enr.FieldPair
}

func New(log logrus.FieldLogger, config *Config) (*Inspector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	i := &Inspector{
		log:            log.WithField("module", "inspector"),
		config:         config,
		peers:          NewPeerTable(),
		dialQueue:      make(chan *discovery.ConnectablePeer, dialQueueSize),
		resolveQueue:   make(chan peer.ID, resolveQueueSize),
		recentlyQueued: cache.NewDuplicateCache[enode.ID, struct{}](log, recentlyQueuedTTL),
		metrics:        NewMetrics(),
	}

	i.decoder = decoder.New(log, &decoder.Config{
		Decode:          config.Decode,
		FullPeerID:      config.FullPeerID,
		OnDecodeFailure: i.metrics.RecordDecodeFailure,
	})

	return i, nil
}

// Run starts every component and blocks until the context is
// canceled. Any returned error is a fatal startup condition.
func (i *Inspector) Run(ctx context.Context) error {
	addresses, err := bootstrap.Load(i.log, i.config.BootstrapFile, i.config.Bootnodes)
	if err != nil {
		return err
	}

	if len(addresses) == 0 {
		return errors.New("no bootstrap addresses available")
	}

	overlayPeers, discNodes, recordDigest := i.classifyBootstraps(addresses)

	i.forkDigest, err = i.resolveForkDigest(recordDigest)
	if err != nil {
		return err
	}

	i.log.WithFields(logrus.Fields{
		"fork_digest":     i.forkDigest.String(),
		"eth2_bootnodes":  len(overlayPeers),
		"disc5_bootnodes": len(discNodes),
	}).Info("Bootstrap list loaded")

	if len(overlayPeers) == 0 {
		return errors.New("no overlay-dialable bootstrap addresses")
	}

	bindIP, err := i.config.BindIP()
	if err != nil {
		return err
	}

	node, err := host.NewNode(i.log, &host.Config{
		IPAddr:  bindIP,
		TCPPort: i.config.EthPort,
		PrivKey: i.config.PrivKey,
	}, userAgent)
	if err != nil {
		return err
	}

	i.node = node

	h, err := node.Start(ctx)
	if err != nil {
		return err
	}

	// The table deliberately outlives the connection: liveness is the
	// transport's concern, so a disconnect only gets a trace.
	node.AfterPeerDisconnect(func(_ network.Network, conn network.Conn) {
		if i.peers.Has(conn.RemotePeer()) {
			i.log.WithField("peer", i.peerString(conn.RemotePeer())).Trace("Tracked peer disconnected")
		}
	})

	engine, err := pubsub.NewEngine(ctx, i.log, h, &pubsub.Config{
		MaxMessageSize: decoder.GossipMaxSize,
		Sign:           i.config.Sign,
		FloodSub:       i.config.FloodSub,
		GossipSub:      i.config.GossipSub,
	})
	if err != nil {
		return err
	}

	i.engine = engine

	if err := i.recentlyQueued.Start(ctx); err != nil {
		return err
	}

	go i.dialerLoop(ctx)

	for _, p := range overlayPeers {
		i.dialQueue <- p
	}

	if !i.config.NoDiscovery && len(discNodes) > 0 {
		if err := i.startDiscovery(ctx, bindIP, discNodes); err != nil {
			return err
		}
	} else {
		i.log.Info("Discovery is disabled")
	}

	if err := i.subscribeAll(ctx); err != nil {
		return err
	}

	i.log.WithField("topics", len(i.engine.Topics())).Info("Inspector started")

	<-ctx.Done()

	i.shutdown()

	return nil
}

// classifyBootstraps splits the bootstrap list into overlay peers and
// discovery seeds, and stitches the fork digest and eth2/attnets field
// pair from the records. First-seen values win; conflicts only warn.
func (i *Inspector) classifyBootstraps(
	addresses []bootstrap.Address,
) ([]*discovery.ConnectablePeer, []*enode.Node, *common.ForkDigest) {
	overlayPeers := []*discovery.ConnectablePeer{}
	discNodes := []*enode.Node{}

	var recordDigest *common.ForkDigest

	for _, address := range addresses {
		switch a := address.(type) {
		case bootstrap.RecordAddress:
			record := a.Record

			if digest, digestErr := record.ForkDigest(); digestErr == nil {
				if recordDigest == nil {
					d := digest
					recordDigest = &d
				} else if *recordDigest != digest {
					i.log.WithFields(logrus.Fields{
						"seen":   recordDigest.String(),
						"record": digest.String(),
					}).Warn("Bootstrap records disagree on fork digest")
				}
			}

			if pair, ok := record.FieldPair(); ok {
				if i.fieldPair == nil {
					i.fieldPair = pair
				} else if !i.fieldPair.Equal(pair) {
					i.log.Warn("Bootstrap records disagree on eth2 field pair")
				}
			}

			p, buildErr := discovery.FromRecord(record)
			if buildErr != nil {
				i.log.WithError(buildErr).WithField("enr", record.Enr).Warn("Skipping undialable bootstrap record")

				continue
			}

			if p.HasTCP() {
				overlayPeers = append(overlayPeers, p)
			}

			if record.HasUDP() {
				discNodes = append(discNodes, record.Node())
			}

		case bootstrap.MultiAddress:
			switch {
			case bootstrap.IsOverlayAddr(a.Addr):
				p, buildErr := discovery.FromMultiaddr(a.Addr)
				if buildErr != nil {
					i.log.WithError(buildErr).WithField("addr", a.Addr).Warn("Skipping bootstrap multiaddress")

					continue
				}

				overlayPeers = append(overlayPeers, p)
			case bootstrap.IsDiscoveryAddr(a.Addr):
				n, buildErr := discovery.EnodeFromMultiaddr(a.Addr)
				if buildErr != nil {
					i.log.WithError(buildErr).WithField("addr", a.Addr).Warn("Skipping bootstrap multiaddress")

					continue
				}

				discNodes = append(discNodes, n)
			}
		}
	}

	return overlayPeers, discNodes, recordDigest
}

// resolveForkDigest picks the effective fork digest: the operator
// override wins over whatever the records advertised; having neither
// is fatal because topic names cannot be constructed without it.
func (i *Inspector) resolveForkDigest(recordDigest *common.ForkDigest) (common.ForkDigest, error) {
	if i.config.ForkDigest != "" {
		digest, err := i.config.ParseForkDigest()
		if err != nil {
			return common.ForkDigest{}, err
		}

		if recordDigest != nil && *recordDigest != digest {
			i.log.WithFields(logrus.Fields{
				"records":  recordDigest.String(),
				"override": digest.String(),
			}).Warn("Overriding fork digest from bootstrap records")
		}

		return digest, nil
	}

	if recordDigest != nil {
		return *recordDigest, nil
	}

	return common.ForkDigest{}, errors.New("no fork digest available: supply --forkdigest or a bootstrap record with an eth2 field")
}

func (i *Inspector) startDiscovery(ctx context.Context, bindIP net.IP, discNodes []*enode.Node) error {
	key, err := i.node.EthereumKey()
	if err != nil {
		return err
	}

	disc := discovery.NewDiscV5(i.log, &discovery.Config{
		BindIP:    bindIP,
		Port:      i.config.DiscoveryPort,
		PrivKey:   key,
		Bootnodes: discNodes,
		FieldPair: i.fieldPair,
	})

	if err := disc.Start(ctx); err != nil {
		return err
	}

	i.finder = disc

	go i.resolverLoop(ctx)

	return i.startDiscoverer(ctx)
}

// subscribeAll expands the topic filters for the resolved fork digest,
// appends the custom topics verbatim, and subscribes to each. Any
// subscription failure is fatal.
func (i *Inspector) subscribeAll(ctx context.Context) error {
	filters := topics.ParseFilters(i.config.TopicCodes)

	names := topics.Names(i.forkDigest, filters)
	names = append(names, i.config.CustomTopics...)

	for _, name := range names {
		if err := i.engine.Subscribe(ctx, name, i.handleMessage); err != nil {
			return err
		}
	}

	return nil
}

// handleMessage is the per-message hook: count it, offer the sender to
// the resolver if we have never met them, then decode.
func (i *Inspector) handleMessage(ctx context.Context, topic string, data []byte, from peer.ID) {
	i.metrics.RecordMessageReceived(topic)

	i.enqueueResolve(from)

	i.decoder.HandleMessage(ctx, topic, data, from)
}

func (i *Inspector) peerString(p peer.ID) string {
	if i.config.FullPeerID {
		return p.String()
	}

	return p.ShortString()
}

func (i *Inspector) shutdown() {
	i.log.Info("Shutting down")

	if i.scheduler != nil {
		if err := i.scheduler.Shutdown(); err != nil {
			i.log.WithError(err).Warn("Failed to stop discovery scheduler")
		}
	}

	if i.finder != nil {
		if err := i.finder.Stop(context.Background()); err != nil {
			i.log.WithError(err).Warn("Failed to stop discovery")
		}
	}

	if i.engine != nil {
		if err := i.engine.Close(); err != nil {
			i.log.WithError(err).Warn("Failed to close pubsub engine")
		}
	}

	if i.node != nil {
		if err := i.node.Stop(context.Background()); err != nil {
			i.log.WithError(err).Warn("Failed to stop host")
		}
	}

	if err := i.recentlyQueued.Stop(); err != nil {
		i.log.WithError(err).Warn("Failed to stop cache")
	}
}
