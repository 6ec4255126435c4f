package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"pantrypulse/pkg/requestcontext"
)

// ErrBufferFull is returned when an async publisher drops an entry because
// its buffer is full. Callers treat audit failures as non-fatal.
var ErrBufferFull = errors.New("audit buffer full, entry dropped")

// Publisher records audit entries. By default entries are appended
// synchronously; WithAsyncBuffer switches to a background worker that
// drains its buffer on Close and drops entries when the buffer is full.
type Publisher struct {
	store  Store
	logger *slog.Logger

	mu     sync.Mutex
	inbox  chan Entry
	done   chan struct{}
	closed bool
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async recording with the given buffer size.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan Entry, size)
		}
	}
}

// WithPublisherLogger overrides the publisher's logger.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

// NewPublisher constructs an audit publisher on top of store.
func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.done = make(chan struct{})
		go p.run()
	}
	return p
}

// Record captures an audit entry for the current request. The username is
// taken from the request context, falling back to "anonymous".
func (p *Publisher) Record(ctx context.Context, action, entity string, entityID int64, details string) error {
	entry := Entry{
		Username:  requestcontext.Username(ctx),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		Timestamp: requestcontext.Now(ctx),
	}

	if p.inbox == nil {
		return p.store.Append(ctx, entry)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrBufferFull
	}
	select {
	case p.inbox <- entry:
		return nil
	default:
		return ErrBufferFull
	}
}

// List returns all recorded entries, most recent first.
func (p *Publisher) List(ctx context.Context) ([]Entry, error) {
	return p.store.List(ctx)
}

// Close stops the background worker after draining buffered entries. It is
// a no-op for synchronous publishers.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()
	<-p.done
}

func (p *Publisher) run() {
	defer close(p.done)
	for entry := range p.inbox {
		if err := p.store.Append(context.Background(), entry); err != nil {
			p.logger.Warn("audit append failed",
				"action", entry.Action, "entity", entry.Entity, "error", err)
		}
	}
}
