package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// A nil collector is a valid no-op so callers without monitoring share the
// same code paths.
func TestPrometheusCollector_NilSafe(t *testing.T) {
	var c *PrometheusCollector

	c.RecordJoin("host", true)
	c.RecordMessageStored("offer")
	c.RecordDelivery(3)
	c.SetActivePeers(2)
	c.ObservePollLatency(5 * time.Millisecond)
}

func TestPrometheusCollector_Records(t *testing.T) {
	// promauto registers against the default registry, so one collector is
	// shared across the package's tests.
	c := NewPrometheusCollector()

	c.RecordJoin("host", true)
	c.RecordJoin("guest", false)
	c.RecordMessageStored("offer")
	c.RecordDelivery(3)
	c.SetActivePeers(2)
	c.ObservePollLatency(5 * time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.joinsTotal.WithLabelValues("host")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.sessionResetsTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.messagesDelivered))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.activePeers))
	assert.Equal(t, 1, testutil.CollectAndCount(c.pollLatency))
}
