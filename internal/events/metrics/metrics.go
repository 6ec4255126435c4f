package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the event bus and the live stream.
type Metrics struct {
	// Events handed to the bus, by type
	Published *prometheus.CounterVec

	// Events dropped because a subscriber channel was full, by type
	Dropped *prometheus.CounterVec

	// Current bus subscribers (live streams plus the webhook dispatcher)
	Subscribers prometheus.Gauge

	// Currently connected SSE observers
	StreamConnections prometheus.Gauge

	// Heartbeats written to live streams
	Heartbeats prometheus.Counter
}

// New creates a Metrics instance with all event plane metrics registered.
func New() *Metrics {
	return &Metrics{
		Published: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pantrypulse_events_published_total",
			Help: "Total domain events published to the bus by type",
		}, []string{"event_type"}),

		Dropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pantrypulse_events_dropped_total",
			Help: "Total events dropped for slow subscribers by type",
		}, []string{"event_type"}),

		Subscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pantrypulse_event_subscribers",
			Help: "Current number of bus subscribers",
		}),

		StreamConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pantrypulse_stream_connections",
			Help: "Current number of connected live stream observers",
		}),

		Heartbeats: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pantrypulse_stream_heartbeats_total",
			Help: "Total heartbeat messages sent on live streams",
		}),
	}
}

// IncrementPublished records an event handed to the bus.
func (m *Metrics) IncrementPublished(eventType string) {
	if m != nil {
		m.Published.WithLabelValues(eventType).Inc()
	}
}

// IncrementDropped records an event dropped for a slow subscriber.
func (m *Metrics) IncrementDropped(eventType string) {
	if m != nil {
		m.Dropped.WithLabelValues(eventType).Inc()
	}
}

// SetSubscribers records the current subscriber count.
func (m *Metrics) SetSubscribers(n int) {
	if m != nil {
		m.Subscribers.Set(float64(n))
	}
}

// IncrementStreamConnections records a new live stream observer.
func (m *Metrics) IncrementStreamConnections() {
	if m != nil {
		m.StreamConnections.Inc()
	}
}

// DecrementStreamConnections records a live stream observer disconnect.
func (m *Metrics) DecrementStreamConnections() {
	if m != nil {
		m.StreamConnections.Dec()
	}
}

// IncrementHeartbeats records a heartbeat written to a live stream.
func (m *Metrics) IncrementHeartbeats() {
	if m != nil {
		m.Heartbeats.Inc()
	}
}
