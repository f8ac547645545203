package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics covers the relay from outbox_events to Pub/Sub.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	parked    *prometheus.CounterVec
	batch     prometheus.Histogram
	lag       prometheus.Histogram
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	m := &OutboxMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tix_outbox_published_total",
			Help: "Outbox events delivered to Pub/Sub.",
		}, []string{"event_type"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tix_outbox_publish_failures_total",
			Help: "Publish attempts that failed and will be retried.",
		}, []string{"event_type"}),
		parked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tix_outbox_dlq_total",
			Help: "Outbox events moved to the dead letter table.",
		}, []string{"event_type", "reason"}),
		batch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tix_outbox_batch_size",
			Help:    "Rows locked per publisher poll.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		lag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tix_outbox_publish_lag_seconds",
			Help:    "Time from commit to successful publish.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	reg.MustRegister(m.published, m.failed, m.parked, m.batch, m.lag)
	return m
}

// ObservePublished records a delivered event committed at createdAt.
func (m *OutboxMetrics) ObservePublished(eventType string, createdAt, now time.Time) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
	if !createdAt.IsZero() && now.After(createdAt) {
		m.lag.Observe(now.Sub(createdAt).Seconds())
	}
}

func (m *OutboxMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) IncParked(eventType, reason string) {
	if m == nil || m.parked == nil {
		return
	}
	m.parked.WithLabelValues(normalizeLabel(eventType), normalizeLabel(reason)).Inc()
}

func (m *OutboxMetrics) ObserveBatch(size int) {
	if m == nil || m.batch == nil {
		return
	}
	m.batch.Observe(float64(size))
}
