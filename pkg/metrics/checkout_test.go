package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.IncWebhook("approved")
	m.IncWebhook("approved")
	m.IncWebhook("")
	m.AddTicketsIssued(3)
	m.AddTicketsIssued(0)
	m.IncLateApproval()
	m.AddExpired(2)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "tix_payment_webhooks_total", "action", "approved")
	require.NoError(t, err)
	assert.Equal(t, float64(2), got)

	got, err = fetchCounterValue(mfs, "tix_payment_webhooks_total", "action", "unknown")
	require.NoError(t, err)
	assert.Equal(t, float64(1), got)

	issued := findMetricFamily(mfs, "tix_tickets_issued_total")
	require.NotNil(t, issued)
	assert.Equal(t, float64(3), issued.GetMetric()[0].GetCounter().GetValue())

	expired := findMetricFamily(mfs, "tix_purchases_expired_total")
	require.NotNil(t, expired)
	assert.Equal(t, float64(2), expired.GetMetric()[0].GetCounter().GetValue())
}

func TestNilCheckoutMetricsAreNoops(t *testing.T) {
	var m *CheckoutMetrics
	m.IncWebhook("x")
	m.IncLateApproval()
	m.AddTicketsIssued(1)

	empty := NewCheckoutMetrics(nil)
	empty.IncPurchase("created")
}
