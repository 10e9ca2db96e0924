package inspector

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/libp2p/go-libp2p/core/network"

	"github.com/ethpandaops/inspector/pkg/discovery"
)

// discoveryTickInterval is the cadence at which the discovery loop
// tops up the peer population.
const discoveryTickInterval = time.Second

// startDiscoverer schedules the periodic discovery tick. A tick that
// runs long simply delays the next one.
func (i *Inspector) startDiscoverer(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.Local))
	if err != nil {
		return err
	}

	if _, err := scheduler.NewJob(
		gocron.DurationJob(discoveryTickInterval),
		gocron.NewTask(
			func(ctx context.Context) {
				i.discoverTick(ctx)
			},
			ctx,
		),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return err
	}

	i.scheduler = scheduler

	scheduler.Start()

	return nil
}

// discoverTick asks discovery for enough random nodes to reach the
// target population and queues the dialable ones. Errors are logged at
// debug; the next tick retries regardless.
func (i *Inspector) discoverTick(ctx context.Context) {
	need := i.config.MaxPeers - i.peers.Len()
	if need <= 0 {
		return
	}

	nodes, err := i.finder.RandomNodes(ctx, need)
	if err != nil {
		i.log.WithError(err).Debug("Discovery tick failed")

		return
	}

	i.metrics.RecordNodesDiscovered(len(nodes))

	for _, node := range nodes {
		p, buildErr := discovery.FromNode(node)
		if buildErr != nil {
			i.log.WithError(buildErr).WithField("node", node.ID()).Debug("Discarding discovery node")

			continue
		}

		if !p.HasTCP() {
			i.log.WithField("peer", i.peerString(p.AddrInfo.ID)).Debug("Discovery only peer, skipping")

			continue
		}

		if i.node.Connectedness(p.AddrInfo.ID) == network.Connected {
			continue
		}

		if i.recentlyQueued.Seen(node.ID(), struct{}{}) {
			i.log.WithField("node", node.ID()).Trace("Node already queued recently")

			continue
		}

		select {
		case i.dialQueue <- p:
		default:
			i.log.WithField("peer", i.peerString(p.AddrInfo.ID)).Warn("Dropping peer: dial queue is full")
		}
	}
}
