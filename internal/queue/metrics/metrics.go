package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the queue module.
type Metrics struct {
	// Tokens issued
	TokensIssued prometheus.Counter

	// Status updates by target status
	StatusUpdates *prometheus.CounterVec

	// Estimated wait assigned at creation, in minutes
	EstimatedWait prometheus.Histogram
}

// New creates a Metrics instance with all queue module metrics registered.
func New() *Metrics {
	return &Metrics{
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pantrypulse_queue_tokens_issued_total",
			Help: "Total queue tokens issued",
		}),

		StatusUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pantrypulse_queue_status_updates_total",
			Help: "Total token status updates by target status",
		}, []string{"status"}),

		EstimatedWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pantrypulse_queue_estimated_wait_minutes",
			Help:    "Estimated wait assigned to new tokens in minutes",
			Buckets: []float64{0, 15, 30, 60, 120, 240},
		}),
	}
}

// IncrementIssued records a newly issued token.
func (m *Metrics) IncrementIssued() {
	if m != nil {
		m.TokensIssued.Inc()
	}
}

// IncrementStatusUpdate records a status transition.
func (m *Metrics) IncrementStatusUpdate(status string) {
	if m != nil {
		m.StatusUpdates.WithLabelValues(status).Inc()
	}
}

// ObserveEstimatedWait records the wait estimate assigned at creation.
func (m *Metrics) ObserveEstimatedWait(minutes int) {
	if m != nil {
		m.EstimatedWait.Observe(float64(minutes))
	}
}
