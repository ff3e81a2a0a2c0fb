package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exposes relay-side counters. All methods are nil-safe
// so callers constructed without monitoring can share the same code paths.
type PrometheusCollector struct {
	joinsTotal         *prometheus.CounterVec
	sessionResetsTotal prometheus.Counter
	messagesStored     *prometheus.CounterVec
	messagesDelivered  prometheus.Counter
	activePeers        prometheus.Gauge
	pollLatency        prometheus.Histogram
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		joinsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vidlink_joins_total",
			Help: "Total number of join operations",
		}, []string{"role"}),

		sessionResetsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vidlink_session_resets_total",
			Help: "Total number of full session resets",
		}),

		messagesStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vidlink_messages_stored_total",
			Help: "Total number of signaling messages stored",
		}, []string{"type"}),

		messagesDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vidlink_messages_delivered_total",
			Help: "Total number of signaling messages returned to pollers",
		}),

		activePeers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vidlink_active_peers",
			Help: "Number of peers currently in the registry",
		}),

		pollLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vidlink_poll_duration_seconds",
			Help:    "Time spent serving one delivery poll",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (c *PrometheusCollector) RecordJoin(role string, reset bool) {
	if c == nil {
		return
	}
	c.joinsTotal.WithLabelValues(role).Inc()
	if reset {
		c.sessionResetsTotal.Inc()
	}
}

func (c *PrometheusCollector) RecordMessageStored(signalType string) {
	if c == nil {
		return
	}
	c.messagesStored.WithLabelValues(signalType).Inc()
}

func (c *PrometheusCollector) RecordDelivery(count int) {
	if c == nil {
		return
	}
	c.messagesDelivered.Add(float64(count))
}

func (c *PrometheusCollector) SetActivePeers(count int) {
	if c == nil {
		return
	}
	c.activePeers.Set(float64(count))
}

func (c *PrometheusCollector) ObservePollLatency(d time.Duration) {
	if c == nil {
		return
	}
	c.pollLatency.Observe(d.Seconds())
}
