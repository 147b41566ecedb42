package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncSubmitted("passport")
		m.IncTransition("PENDING", "VERIFIED")
		m.IncConflict("claim")
		m.AddExpired(3)
		m.ObserveSweep(0.1)
		m.IncEventsPublished()
		m.IncEventsFailed()
		m.IncEventsDropped()
		m.IncCache("hit")
		m.ObserveOperation("decide", 0.01)
	})
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncSubmitted("passport")
	m.IncSubmitted("passport")
	m.IncTransition("PENDING", "UNDER_REVIEW")
	m.AddExpired(2)
	m.IncCache("stale")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsSubmitted.WithLabelValues("passport")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("PENDING", "UNDER_REVIEW")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AggregateCache.WithLabelValues("stale")))
}
