package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics counts purchase and payment reconciliation outcomes.
type CheckoutMetrics struct {
	purchases     *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
	lateApprovals prometheus.Counter
	ticketsIssued prometheus.Counter
	expired       prometheus.Counter
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	m := &CheckoutMetrics{
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tix_purchases_created_total",
			Help: "Purchases created from carts.",
		}, []string{"outcome"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tix_payment_webhooks_total",
			Help: "Payment notifications processed by resulting action.",
		}, []string{"action"}),
		lateApprovals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tix_payment_late_approvals_total",
			Help: "Approvals received for purchases already cancelled past their deadline.",
		}),
		ticketsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tix_tickets_issued_total",
			Help: "Tickets issued for paid purchases.",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tix_purchases_expired_total",
			Help: "Pending purchases cancelled after their payment deadline.",
		}),
	}
	reg.MustRegister(m.purchases, m.webhooks, m.lateApprovals, m.ticketsIssued, m.expired)
	return m
}

func (m *CheckoutMetrics) IncPurchase(outcome string) {
	if m == nil || m.purchases == nil {
		return
	}
	m.purchases.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *CheckoutMetrics) IncWebhook(action string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(action)).Inc()
}

func (m *CheckoutMetrics) IncLateApproval() {
	if m == nil || m.lateApprovals == nil {
		return
	}
	m.lateApprovals.Inc()
}

func (m *CheckoutMetrics) AddTicketsIssued(n int) {
	if m == nil || m.ticketsIssued == nil || n <= 0 {
		return
	}
	m.ticketsIssued.Add(float64(n))
}

func (m *CheckoutMetrics) AddExpired(n int64) {
	if m == nil || m.expired == nil || n <= 0 {
		return
	}
	m.expired.Add(float64(n))
}
