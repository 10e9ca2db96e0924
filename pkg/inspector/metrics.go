package inspector

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	DialsTotal       *prometheus.CounterVec
	PendingDials     prometheus.Gauge
	NodesDiscovered  prometheus.Counter
	ResolvesTotal    *prometheus.CounterVec
	MessagesReceived *prometheus.CounterVec
	DecodeFailures   prometheus.Counter
}

func NewMetrics() *Metrics {
	namespace := "inspector"

	m := &Metrics{
		DialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "dials_total",
			Help:      "Number of dial attempts by result",
			Namespace: namespace,
		}, []string{"result"}),
		PendingDials: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:      "pending_dials",
			Help:      "Number of pending dials",
			Namespace: namespace,
		}),
		NodesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "nodes_discovered_total",
			Help:      "Number of nodes returned by discovery",
			Namespace: namespace,
		}),
		ResolvesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "resolves_total",
			Help:      "Number of peer resolutions by outcome",
			Namespace: namespace,
		}, []string{"outcome"}),
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "messages_received_total",
			Help:      "Number of pubsub messages received per topic",
			Namespace: namespace,
		}, []string{"topic"}),
		DecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "decode_failures_total",
			Help:      "Number of messages that failed to decode",
			Namespace: namespace,
		}),
	}

	prometheus.MustRegister(
		m.DialsTotal,
		m.PendingDials,
		m.NodesDiscovered,
		m.ResolvesTotal,
		m.MessagesReceived,
		m.DecodeFailures,
	)

	return m
}

func (m *Metrics) RecordDial(result string) {
	m.DialsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordPendingDials(count int) {
	m.PendingDials.Set(float64(count))
}

func (m *Metrics) RecordNodesDiscovered(count int) {
	m.NodesDiscovered.Add(float64(count))
}

func (m *Metrics) RecordResolve(outcome string) {
	m.ResolvesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordMessageReceived(topic string) {
	m.MessagesReceived.WithLabelValues(topic).Inc()
}

func (m *Metrics) RecordDecodeFailure() {
	m.DecodeFailures.Inc()
}
