package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the verification engine. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	DocumentsSubmitted *prometheus.CounterVec
	Transitions        *prometheus.CounterVec
	Conflicts          *prometheus.CounterVec
	DocumentsExpired   prometheus.Counter
	SweepDuration      prometheus.Histogram
	EventsPublished    prometheus.Counter
	EventsFailed       prometheus.Counter
	EventsDropped      prometheus.Counter
	AggregateCache     *prometheus.CounterVec
	OperationLatency   *prometheus.HistogramVec
}

// New registers the engine metrics with reg. Pass prometheus.NewRegistry()
// in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "talentkyc_documents_submitted_total",
			Help: "Documents accepted for verification, by document type",
		}, []string{"document_type"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "talentkyc_document_transitions_total",
			Help: "Committed document status transitions",
		}, []string{"from", "to"}),
		Conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "talentkyc_document_conflicts_total",
			Help: "Writes refused because of a concurrent change or competing claim",
		}, []string{"operation"}),
		DocumentsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "talentkyc_documents_expired_total",
			Help: "Verified documents moved to EXPIRED by the sweep",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "talentkyc_expiry_sweep_duration_seconds",
			Help:    "Duration of one expiry sweep",
			Buckets: prometheus.DefBuckets,
		}),
		EventsPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "talentkyc_events_published_total",
			Help: "Events delivered to the event sink",
		}),
		EventsFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "talentkyc_events_failed_total",
			Help: "Events the sink refused after all retries",
		}),
		EventsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "talentkyc_events_dropped_total",
			Help: "Events discarded because the dispatch buffer was full",
		}),
		AggregateCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "talentkyc_aggregate_cache_total",
			Help: "Aggregate status cache lookups by result",
		}, []string{"result"}),
		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "talentkyc_operation_duration_seconds",
			Help:    "Latency of engine operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncSubmitted(docType string) {
	if m == nil {
		return
	}
	m.DocumentsSubmitted.WithLabelValues(docType).Inc()
}

func (m *Metrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncConflict(operation string) {
	if m == nil {
		return
	}
	m.Conflicts.WithLabelValues(operation).Inc()
}

func (m *Metrics) AddExpired(n int) {
	if m == nil {
		return
	}
	m.DocumentsExpired.Add(float64(n))
}

func (m *Metrics) ObserveSweep(seconds float64) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(seconds)
}

func (m *Metrics) IncEventsPublished() {
	if m == nil {
		return
	}
	m.EventsPublished.Inc()
}

func (m *Metrics) IncEventsFailed() {
	if m == nil {
		return
	}
	m.EventsFailed.Inc()
}

func (m *Metrics) IncEventsDropped() {
	if m == nil {
		return
	}
	m.EventsDropped.Inc()
}

// IncCache records an aggregate cache lookup: "hit", "miss" or "stale".
func (m *Metrics) IncCache(result string) {
	if m == nil {
		return
	}
	m.AggregateCache.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveOperation(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.OperationLatency.WithLabelValues(operation).Observe(seconds)
}
