package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for webhook delivery.
type Metrics struct {
	// Delivery attempts by event type and outcome ("success" / "failure")
	Deliveries *prometheus.CounterVec

	// Outbound call latency
	DeliveryLatency prometheus.Histogram
}

// New creates a Metrics instance with all webhook metrics registered.
func New() *Metrics {
	return &Metrics{
		Deliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pantrypulse_webhook_deliveries_total",
			Help: "Total webhook delivery attempts by event type and outcome",
		}, []string{"event_type", "outcome"}),

		DeliveryLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pantrypulse_webhook_delivery_duration_seconds",
			Help:    "Duration of outbound webhook calls",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementDelivery records a delivery attempt outcome.
func (m *Metrics) IncrementDelivery(eventType string, success bool) {
	if m != nil {
		outcome := "success"
		if !success {
			outcome = "failure"
		}
		m.Deliveries.WithLabelValues(eventType, outcome).Inc()
	}
}

// ObserveDeliveryLatency records the duration of an outbound call.
func (m *Metrics) ObserveDeliveryLatency(d time.Duration) {
	if m != nil {
		m.DeliveryLatency.Observe(d.Seconds())
	}
}
