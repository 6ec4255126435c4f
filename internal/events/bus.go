package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pantrypulse/internal/events/metrics"
)

const defaultSubscriberBuffer = 64

// Bus is the in-process multicast point for domain events. It is created once
// at startup, injected into every publisher and subscriber, and torn down at
// shutdown via Close.
//
// Publish never blocks and never surfaces subscriber failures to the caller: a
// subscriber that cannot keep up loses events from its own feed only. Each
// subscriber observes the events published after its Subscribe call, in
// publish order. There is no replay and no history buffer.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]chan DomainEvent
	nextID uint64
	closed bool

	buffer  int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type BusOption func(*Bus)

// WithSubscriberBuffer overrides the per-subscriber channel capacity.
func WithSubscriberBuffer(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

func WithLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) { b.logger = logger }
}

func WithMetrics(m *metrics.Metrics) BusOption {
	return func(b *Bus) { b.metrics = m }
}

// NewBus constructs an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:   make(map[uint64]chan DomainEvent),
		buffer: defaultSubscriberBuffer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish builds the event, stamps it, and hands it to every current
// subscriber. It returns once the event has been offered to each subscriber
// channel; a full channel drops the event for that subscriber alone.
func (b *Bus) Publish(ctx context.Context, eventType, entity string, entityID *int64, data map[string]any) {
	event := DomainEvent{
		EventType: eventType,
		Entity:    entity,
		EntityID:  entityID,
		Data:      data,
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.metrics.IncrementDropped(eventType)
			b.logger.WarnContext(ctx, "subscriber behind, event dropped",
				"subscriber_id", id,
				"event_type", eventType,
			)
		}
	}

	b.metrics.IncrementPublished(eventType)
	b.logger.InfoContext(ctx, "event published",
		"event_type", eventType,
		"entity", entity,
		"entity_id", entityID,
	)
}

// Subscription is one live feed of events. Close detaches it from the bus;
// after Close returns no further sends happen and C is closed.
type Subscription struct {
	C <-chan DomainEvent

	once   sync.Once
	cancel func()
}

func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// Subscribe registers a fresh independent feed starting from this moment.
func (b *Bus) Subscribe() *Subscription {
	ch := make(chan DomainEvent, b.buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.closed {
		close(ch)
		b.mu.Unlock()
		return &Subscription{C: ch, cancel: func() {}}
	}
	b.subs[id] = ch
	b.mu.Unlock()

	b.metrics.SetSubscribers(b.subscriberCount())

	return &Subscription{
		C: ch,
		cancel: func() {
			b.mu.Lock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
			b.mu.Unlock()
			b.metrics.SetSubscribers(b.subscriberCount())
		},
	}
}

// Close detaches and closes every subscriber feed. Publish calls after Close
// are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *Bus) subscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
