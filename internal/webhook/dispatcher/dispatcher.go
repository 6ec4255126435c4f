// Package dispatcher forwards published domain events to registered webhook
// endpoints. It runs as an independent bus subscriber so outbound calls never
// touch the publishing path; every endpoint is attempted independently, and
// delivery failures are logged and deliberately dropped, never retried.
package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"pantrypulse/internal/events"
	"pantrypulse/internal/webhook/metrics"
	"pantrypulse/internal/webhook/models"
)

const defaultDeliveryTimeout = 10 * time.Second

// SubscriptionSource is the dispatcher's view of the webhook registry: find
// interested endpoints and advance their lastTriggeredAt after a successful
// delivery (last write wins). The dispatcher never writes any other field,
// so registry changes made while a delivery is in flight are preserved.
type SubscriptionSource interface {
	ListActiveByEvent(ctx context.Context, eventType string) ([]*models.Webhook, error)
	TouchLastTriggered(ctx context.Context, id int64, at time.Time) error
}

// Dispatcher consumes the full event stream and fans deliveries out per
// endpoint.
type Dispatcher struct {
	bus     *events.Bus
	hooks   SubscriptionSource
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Dispatcher)

// WithHTTPClient overrides the outbound client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) { d.client = client }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// New constructs a dispatcher. Call Run on its own goroutine to start it.
func New(bus *events.Bus, hooks SubscriptionSource, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		bus:    bus,
		hooks:  hooks,
		logger: logger,
		client: &http.Client{Timeout: defaultDeliveryTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run subscribes to the bus and dispatches until ctx is cancelled or the bus
// shuts down. Each event is fully fanned out before the next is taken, so the
// registry sees attempts in publish order.
func (d *Dispatcher) Run(ctx context.Context) error {
	sub := d.bus.Subscribe()
	defer sub.Close()

	d.logger.InfoContext(ctx, "webhook dispatcher started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, open := <-sub.C:
			if !open {
				return nil
			}
			d.dispatch(ctx, event)
		}
	}
}

// dispatch delivers one event to every interested endpoint. Endpoints run in
// parallel; each delivery's error is inspected here and dropped so one bad
// endpoint cannot starve the others.
func (d *Dispatcher) dispatch(ctx context.Context, event events.DomainEvent) {
	hooks, err := d.hooks.ListActiveByEvent(ctx, event.EventType)
	if err != nil {
		d.logger.ErrorContext(ctx, "webhook lookup failed",
			"event_type", event.EventType,
			"error", err,
		)
		return
	}
	if len(hooks) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, hook := range hooks {
		g.Go(func() error {
			start := time.Now()
			err := d.deliver(gctx, hook, event)
			d.metrics.ObserveDeliveryLatency(time.Since(start))
			d.metrics.IncrementDelivery(event.EventType, err == nil)

			if err != nil {
				// Failed deliveries are dropped here on purpose: no retry, no
				// dead-letter. The next matching event is the next attempt.
				d.logger.ErrorContext(gctx, "webhook delivery failed",
					"webhook_id", hook.ID,
					"url", hook.URL,
					"event_type", event.EventType,
					"error", err,
				)
				return nil
			}

			d.touch(gctx, hook)
			d.logger.InfoContext(gctx, "webhook delivered",
				"webhook_id", hook.ID,
				"url", hook.URL,
				"event_type", event.EventType,
			)
			return nil
		})
	}
	_ = g.Wait()
}

// envelope is the outbound webhook body.
type envelope struct {
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// deliver POSTs the event to one endpoint. Any transport error or non-2xx
// response is a failed attempt.
func (d *Dispatcher) deliver(ctx context.Context, hook *models.Webhook, event events.DomainEvent) error {
	body, err := json.Marshal(envelope{
		Event:     event.EventType,
		Timestamp: event.Timestamp,
		Data: map[string]any{
			"entity":    event.Entity,
			"entityId":  event.EntityID,
			"data":      event.Data,
			"timestamp": event.Timestamp,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}

// touch advances lastTriggeredAt after a successful delivery. A failed write
// only loses the bookkeeping timestamp, so it is logged and dropped.
func (d *Dispatcher) touch(ctx context.Context, hook *models.Webhook) {
	if err := d.hooks.TouchLastTriggered(ctx, hook.ID, time.Now()); err != nil {
		d.logger.WarnContext(ctx, "failed to update lastTriggeredAt",
			"webhook_id", hook.ID,
			"error", err,
		)
	}
}
