// Package handler exposes the live event stream over SSE. Each connected
// observer gets its own bus subscription merged with a periodic heartbeat;
// both end together when the observer disconnects.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pantrypulse/internal/events"
	"pantrypulse/internal/events/metrics"
)

const defaultHeartbeatInterval = 30 * time.Second

// Handler serves the live event stream.
type Handler struct {
	bus       *events.Bus
	logger    *slog.Logger
	metrics   *metrics.Metrics
	heartbeat time.Duration
}

type Option func(*Handler)

// WithHeartbeatInterval overrides the keep-alive cadence. Tests use short
// intervals; production stays at the 30s default.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// New constructs the stream handler.
func New(bus *events.Bus, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		bus:       bus,
		logger:    logger,
		heartbeat: defaultHeartbeatInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the stream endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/v1/events/stream", h.HandleStream)
}

// HandleStream handles GET /api/v1/events/stream. The observer receives one
// SSE message per domain event plus heartbeat messages on a fixed cadence.
// Client disconnect is a normal termination, not an error.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	sub := h.bus.Subscribe()
	defer sub.Close()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	h.metrics.IncrementStreamConnections()
	defer h.metrics.DecrementStreamConnections()

	h.logger.InfoContext(ctx, "live stream opened", "remote", r.RemoteAddr)
	defer h.logger.InfoContext(ctx, "live stream closed", "remote", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-sub.C:
			if !open {
				return
			}
			if err := writeEvent(w, event); err != nil {
				// Observer went away mid-write; treat as disconnect.
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if err := writeHeartbeat(w); err != nil {
				return
			}
			flusher.Flush()
			h.metrics.IncrementHeartbeats()
		}
	}
}

// writeEvent emits one SSE message: the event timestamp as the message id,
// the event type as the SSE event name, and the serialized event as data.
func writeEvent(w http.ResponseWriter, event events.DomainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n",
		event.Timestamp.Format(time.RFC3339Nano), event.EventType, data)
	return err
}

// writeHeartbeat emits a keep-alive message carrying no domain payload, so
// consumers can tell it apart from events by its name alone.
func writeHeartbeat(w http.ResponseWriter) error {
	_, err := fmt.Fprint(w, "event: heartbeat\n: keepalive\n\n")
	return err
}
