package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records gateway interactions and order materialization
// outcomes.
type PaymentMetrics struct {
	gatewayDuration  *prometheus.HistogramVec
	polls            *prometheus.CounterVec
	materializations *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_request_duration_seconds",
		Help:    "Duration of payment gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	polls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_status_polls_total",
		Help: "Payment status polls grouped by resulting status.",
	}, []string{"status"})
	materializations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_materializations_total",
		Help: "Order materialization attempts grouped by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(gatewayDuration, polls, materializations)
	return &PaymentMetrics{
		gatewayDuration:  gatewayDuration,
		polls:            polls,
		materializations: materializations,
	}
}

// ObserveGatewayRequest records the duration of a gateway call.
func (p *PaymentMetrics) ObserveGatewayRequest(operation string, duration time.Duration) {
	if p == nil || p.gatewayDuration == nil {
		return
	}
	p.gatewayDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncPoll increments the poll counter for the observed payment status.
func (p *PaymentMetrics) IncPoll(status string) {
	if p == nil || p.polls == nil {
		return
	}
	p.polls.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncMaterialization increments the materialization counter for an outcome.
func (p *PaymentMetrics) IncMaterialization(outcome string) {
	if p == nil || p.materializations == nil {
		return
	}
	p.materializations.WithLabelValues(normalizeLabel(outcome)).Inc()
}
