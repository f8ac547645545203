package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNotificationMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewNotificationMetrics(reg)

	m.IncDelivery("purchase_paid", NotificationSent)
	m.IncDelivery("purchase_paid", NotificationSent)
	m.IncDelivery("", NotificationRetry)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.deliveries.WithLabelValues("purchase_paid", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("unknown", "retry")))
}

func TestNotificationMetricsNilSafe(t *testing.T) {
	var m *NotificationMetrics
	m.IncDelivery("purchase_paid", NotificationSent)
	NewNotificationMetrics(nil).IncDelivery("purchase_paid", NotificationSent)
}
