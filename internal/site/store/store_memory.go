// Package store persists distribution sites. The in-memory implementation
// backs development and tests; PostgresStore is the production variant and
// CachedStore adds a Redis read-through layer on lookups.
package store

import (
	"context"
	"sync"

	"pantrypulse/internal/site/models"
	"pantrypulse/pkg/platform/sentinel"
)

// InMemory implements the site store with a mutex-guarded map.
type InMemory struct {
	mu     sync.RWMutex
	sites  map[int64]*models.Site
	nextID int64
}

// NewInMemory creates an empty in-memory site store.
func NewInMemory() *InMemory {
	return &InMemory{sites: make(map[int64]*models.Site)}
}

// Save inserts the site when its ID is zero and updates it otherwise.
func (s *InMemory) Save(_ context.Context, site *models.Site) (*models.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *site
	if stored.ID == 0 {
		s.nextID++
		stored.ID = s.nextID
	} else if _, ok := s.sites[stored.ID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	s.sites[stored.ID] = &stored

	out := stored
	return &out, nil
}

// FindByID looks up a site.
func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	site, ok := s.sites[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *site
	return &out, nil
}

// Delete removes a site.
func (s *InMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sites[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sites, id)
	return nil
}
