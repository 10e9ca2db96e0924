package host

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	PeerConnectsTotal    prometheus.Counter
	PeerDisconnectsTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		PeerConnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "peer_connects_success_total",
			Help: "Total number of successful peer connections",
		}),
		PeerDisconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "peer_disconnects_success_total",
			Help: "Total number of successful peer disconnections",
		}),
	}

	prometheus.MustRegister(
		m.PeerConnectsTotal,
		m.PeerDisconnectsTotal,
	)

	return m
}
