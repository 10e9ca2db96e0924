package inspector

import (
	"context"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/ethpandaops/inspector/pkg/discovery"
)

// resolverLoop maps overlay identities seen on gossip topics onto
// discovery node IDs and enriches the peer table with whatever the
// lookup returns. Best effort all the way: failures are logged and the
// loop moves on.
func (i *Inspector) resolverLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case pid := <-i.resolveQueue:
			i.resolvePeer(ctx, pid)
		}
	}
}

func (i *Inspector) resolvePeer(ctx context.Context, pid peer.ID) {
	logctx := i.log.WithField("peer", i.peerString(pid))

	nodeID, err := discovery.PeerIDToNodeID(pid)
	if err != nil {
		i.metrics.RecordResolve("failed")

		logctx.WithError(err).Warn("Failed to derive node ID for peer")

		return
	}

	node, err := i.finder.Resolve(ctx, nodeID)
	if err != nil {
		i.metrics.RecordResolve("failed")

		logctx.WithError(err).Warn("Failed to resolve peer")

		return
	}

	if node == nil {
		i.metrics.RecordResolve("empty")

		logctx.Trace("Peer not found via discovery")

		return
	}

	p, err := discovery.FromNode(node)
	if err != nil {
		i.metrics.RecordResolve("invalid")

		logctx.WithError(err).Warn("Record is invalid")

		return
	}

	i.peers.Add(p.AddrInfo)
	i.metrics.RecordResolve("resolved")

	logctx.WithField("addrs", p.AddrInfo.Addrs).Debug("Enriched peer from discovery")
}

// enqueueResolve offers an identity to the resolver. The queue is
// small and drops are silent: enrichment is best effort.
func (i *Inspector) enqueueResolve(pid peer.ID) {
	if pid == "" {
		return
	}

	if i.finder == nil || i.peers.Has(pid) {
		return
	}

	select {
	case i.resolveQueue <- pid:
	default:
		i.metrics.RecordResolve("dropped")

		i.log.WithField("peer", i.peerString(pid)).Trace("Resolve queue full, dropping peer")
	}
}
