package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	NotificationSent      = "sent"
	NotificationDuplicate = "duplicate"
	NotificationSkipped   = "skipped"
	NotificationDropped   = "dropped"
	NotificationRetry     = "retry"
)

// NotificationMetrics counts email consumer deliveries by outcome.
type NotificationMetrics struct {
	deliveries *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	m := &NotificationMetrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tix_notification_deliveries_total",
			Help: "Pub/Sub deliveries handled by the email consumer.",
		}, []string{"event_type", "outcome"}),
	}
	reg.MustRegister(m.deliveries)
	return m
}

func (m *NotificationMetrics) IncDelivery(eventType, outcome string) {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}
