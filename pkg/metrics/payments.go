package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records gateway traffic and order reconciliation outcomes.
type PaymentMetrics struct {
	gatewayDuration *prometheus.HistogramVec
	gatewayRequests *prometheus.CounterVec
	checkouts       *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
// A nil registerer yields a no-op collector, matching test usage.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Duration of MakeCommerce API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	gatewayRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "MakeCommerce API calls by operation and result.",
	}, []string{"operation", "result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout submissions by result.",
	}, []string{"result"})
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Return/notification reconciliation runs by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(gatewayDuration, gatewayRequests, checkouts, reconciliations)
	return &PaymentMetrics{
		gatewayDuration: gatewayDuration,
		gatewayRequests: gatewayRequests,
		checkouts:       checkouts,
		reconciliations: reconciliations,
	}
}

// ObserveGateway records a single gateway call.
func (p *PaymentMetrics) ObserveGateway(operation, result string, duration time.Duration) {
	if p == nil {
		return
	}
	if p.gatewayDuration != nil {
		p.gatewayDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
	}
	if p.gatewayRequests != nil {
		p.gatewayRequests.WithLabelValues(normalizeLabel(operation), normalizeLabel(result)).Inc()
	}
}

// IncCheckout counts a checkout attempt by result.
func (p *PaymentMetrics) IncCheckout(result string) {
	if p == nil || p.checkouts == nil {
		return
	}
	p.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncReconciliation counts a reconciliation run by outcome.
func (p *PaymentMetrics) IncReconciliation(outcome string) {
	if p == nil || p.reconciliations == nil {
		return
	}
	p.reconciliations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
