// Package store persists inventory items. The in-memory implementation
// backs development and tests.
package store

import (
	"context"
	"sort"
	"sync"

	"pantrypulse/internal/inventory/models"
	"pantrypulse/pkg/platform/sentinel"
)

// InMemory implements the inventory store with a mutex-guarded map.
type InMemory struct {
	mu     sync.RWMutex
	items  map[int64]*models.Item
	nextID int64
}

// NewInMemory creates an empty in-memory inventory store.
func NewInMemory() *InMemory {
	return &InMemory{items: make(map[int64]*models.Item)}
}

// Save inserts the item when its ID is zero and updates it otherwise.
func (s *InMemory) Save(_ context.Context, item *models.Item) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clone(item)
	if stored.ID == 0 {
		s.nextID++
		stored.ID = s.nextID
	} else if _, ok := s.items[stored.ID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	s.items[stored.ID] = stored

	return clone(stored), nil
}

// FindByID looks up an item.
func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(item), nil
}

// List returns all items ordered by ID.
func (s *InMemory) List(_ context.Context) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*models.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, clone(item))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// ListBelowQty returns items whose quantity is below threshold, ordered by ID.
func (s *InMemory) ListBelowQty(_ context.Context, threshold int) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*models.Item
	for _, item := range s.items {
		if item.Qty < threshold {
			items = append(items, clone(item))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func clone(item *models.Item) *models.Item {
	copied := *item
	copied.Tags = append([]string(nil), item.Tags...)
	return &copied
}
