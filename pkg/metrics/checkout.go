package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout and payment outcomes. A nil receiver is a no-op.
type CheckoutMetrics struct {
	checkouts *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	payments  *prometheus.CounterVec
	callbacks *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout attempts by result code.",
	}, []string{"result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_initiations_total",
		Help: "Gateway initiation outcomes.",
	}, []string{"gateway", "outcome"})
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Gateway callbacks by kind and resulting transaction status.",
	}, []string{"kind", "status"})
	reg.MustRegister(checkouts, duration, payments, callbacks)
	return &CheckoutMetrics{
		checkouts: checkouts,
		duration:  duration,
		payments:  payments,
		callbacks: callbacks,
	}
}

// ObserveCheckout counts a checkout and records its duration.
func (m *CheckoutMetrics) ObserveCheckout(result string, took time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	result = normalizeLabel(result)
	m.checkouts.WithLabelValues(result).Inc()
	m.duration.WithLabelValues(result).Observe(took.Seconds())
}

func (m *CheckoutMetrics) IncPayment(gateway, outcome string) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(normalizeLabel(gateway), normalizeLabel(outcome)).Inc()
}

func (m *CheckoutMetrics) IncCallback(kind, status string) {
	if m == nil || m.callbacks == nil {
		return
	}
	m.callbacks.WithLabelValues(normalizeLabel(kind), normalizeLabel(status)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
