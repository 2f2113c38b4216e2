// Package metrics exposes Prometheus collectors for capture and sync.
//
// A nil *Metrics is valid and records nothing, so components can take an
// optional collector set without branching at every call site.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "provtrack"

// Metrics holds the collectors shared by the instrumentor, buffer and syncer.
type Metrics struct {
	eventsRecorded  *prometheus.CounterVec
	captureFailures prometheus.Counter
	bufferDepth     prometheus.Gauge
	syncAttempts    prometheus.Counter
	syncFailures    prometheus.Counter
	eventsSynced    prometheus.Counter
	syncDuration    prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		eventsRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_recorded_total",
				Help:      "Events appended to the buffer, by event kind.",
			},
			[]string{"kind"},
		),
		captureFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_failures_total",
			Help:      "Fit or transform calls whose event could not be captured.",
		}),
		bufferDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_depth",
			Help:      "Events currently awaiting sync.",
		}),
		syncAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_attempts_total",
			Help:      "Backend transmission attempts, including retries.",
		}),
		syncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_failures_total",
			Help:      "Sync calls that gave up and re-buffered their events.",
		}),
		eventsSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_synced_total",
			Help:      "Events acknowledged by the backend.",
		}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Wall time of sync calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.eventsRecorded,
		m.captureFailures,
		m.bufferDepth,
		m.syncAttempts,
		m.syncFailures,
		m.eventsSynced,
		m.syncDuration,
	)
	return m
}

func (m *Metrics) EventRecorded(kind string) {
	if m == nil {
		return
	}
	m.eventsRecorded.WithLabelValues(kind).Inc()
}

func (m *Metrics) CaptureFailed() {
	if m == nil {
		return
	}
	m.captureFailures.Inc()
}

func (m *Metrics) SetBufferDepth(n int) {
	if m == nil {
		return
	}
	m.bufferDepth.Set(float64(n))
}

func (m *Metrics) SyncAttempt() {
	if m == nil {
		return
	}
	m.syncAttempts.Inc()
}

func (m *Metrics) SyncFailed() {
	if m == nil {
		return
	}
	m.syncFailures.Inc()
}

func (m *Metrics) EventsSynced(n int) {
	if m == nil {
		return
	}
	m.eventsSynced.Add(float64(n))
}

func (m *Metrics) ObserveSync(d time.Duration) {
	if m == nil {
		return
	}
	m.syncDuration.Observe(d.Seconds())
}
