// Package store persists webhook subscriptions. The in-memory implementation
// backs development and tests; PostgresStore is the production variant.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"pantrypulse/internal/webhook/models"
	"pantrypulse/pkg/platform/sentinel"
)

// InMemory implements the webhook store with a mutex-guarded map.
type InMemory struct {
	mu     sync.RWMutex
	hooks  map[int64]*models.Webhook
	nextID int64
}

// NewInMemory creates an empty in-memory webhook store.
func NewInMemory() *InMemory {
	return &InMemory{hooks: make(map[int64]*models.Webhook)}
}

// Create inserts the webhook and assigns its ID.
func (s *InMemory) Create(_ context.Context, hook *models.Webhook) (*models.Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clone(hook)
	s.nextID++
	stored.ID = s.nextID
	s.hooks[stored.ID] = stored

	return clone(stored), nil
}

// FindByID looks up a webhook.
func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hook, ok := s.hooks[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(hook), nil
}

// List returns all webhooks ordered by ID.
func (s *InMemory) List(_ context.Context) ([]*models.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hooks := make([]*models.Webhook, 0, len(s.hooks))
	for _, hook := range s.hooks {
		hooks = append(hooks, clone(hook))
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i].ID < hooks[j].ID })
	return hooks, nil
}

// ListActiveByEvent returns active webhooks subscribed to eventType.
func (s *InMemory) ListActiveByEvent(_ context.Context, eventType string) ([]*models.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hooks []*models.Webhook
	for _, hook := range s.hooks {
		if hook.Active && hook.SubscribedTo(eventType) {
			hooks = append(hooks, clone(hook))
		}
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i].ID < hooks[j].ID })
	return hooks, nil
}

// Update replaces the stored webhook. Last write wins.
func (s *InMemory) Update(_ context.Context, hook *models.Webhook) (*models.Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hooks[hook.ID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	s.hooks[hook.ID] = clone(hook)
	return clone(hook), nil
}

// TouchLastTriggered sets lastTriggeredAt without touching any other field,
// so it cannot clobber concurrent registry updates.
func (s *InMemory) TouchLastTriggered(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hook, ok := s.hooks[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	stamped := at
	hook.LastTriggeredAt = &stamped
	return nil
}

// Delete removes a webhook.
func (s *InMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hooks[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.hooks, id)
	return nil
}

func clone(hook *models.Webhook) *models.Webhook {
	copied := *hook
	copied.Events = append([]string{}, hook.Events...)
	if hook.LastTriggeredAt != nil {
		at := *hook.LastTriggeredAt
		copied.LastTriggeredAt = &at
	}
	return &copied
}
