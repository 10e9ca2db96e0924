package inspector

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/inspector/pkg/discovery"
)

// dialerLoop drains the dial queue in batches: one blocking receive,
// then everything else currently queued. Each batch races its dials
// against a single shared deadline. The loop only exits on shutdown;
// dial failures never stop it.
func (i *Inspector) dialerLoop(ctx context.Context) {
	for {
		var first *discovery.ConnectablePeer

		select {
		case <-ctx.Done():
			return
		case first = <-i.dialQueue:
		}

		batch := []*discovery.ConnectablePeer{first}

	draining:
		for {
			select {
			case p := <-i.dialQueue:
				batch = append(batch, p)
			default:
				break draining
			}
		}

		i.metrics.RecordPendingDials(len(i.dialQueue))

		i.dialBatch(ctx, batch)
	}
}

func (i *Inspector) dialBatch(ctx context.Context, batch []*discovery.ConnectablePeer) {
	dialCtx, cancel := context.WithTimeout(ctx, i.config.DialTimeout)
	defer cancel()

	var (
		wg sync.WaitGroup
		mu sync.Mutex

		succeed, failed, timed int
	)

	for _, p := range batch {
		wg.Add(1)

		go func(p *discovery.ConnectablePeer) {
			defer wg.Done()

			logctx := i.log.WithField("peer", i.peerString(p.AddrInfo.ID))

			err := i.node.ConnectToPeer(dialCtx, p.AddrInfo)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				i.peers.Add(p.AddrInfo)
				i.metrics.RecordDial("succeed")

				succeed++

				logctx.WithField("addrs", p.AddrInfo.Addrs).Info("Connected to peer")
			case dialCtx.Err() != nil && ctx.Err() == nil:
				i.metrics.RecordDial("timed")

				timed++

				logctx.Warn("Timed out connecting to peer")
			default:
				i.metrics.RecordDial("failed")

				failed++

				logctx.WithError(err).Warn("Unable to connect to peer")
			}
		}(p)
	}

	wg.Wait()

	i.log.WithFields(logrus.Fields{
		"succeed": succeed,
		"failed":  failed,
		"timed":   timed,
		"total":   len(batch),
	}).Info("Dial batch finished")
}
