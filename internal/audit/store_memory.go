package audit

import (
	"context"
	"sync"
)

// InMemoryStore is an append-only slice guarded by a mutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	nextID  int64
}

// NewInMemoryStore creates an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append stores the entry and assigns its ID.
func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry.ID = s.nextID
	s.entries = append(s.entries, entry)
	return nil
}

// List returns all entries, most recent first.
func (s *InMemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(Entry) bool { return true }), nil
}

// ListByUsername returns entries recorded for username, most recent first.
func (s *InMemoryStore) ListByUsername(_ context.Context, username string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(e Entry) bool { return e.Username == username }), nil
}

// ListByEntity returns entries recorded for entity, most recent first.
func (s *InMemoryStore) ListByEntity(_ context.Context, entity string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(e Entry) bool { return e.Entity == entity }), nil
}

func (s *InMemoryStore) filter(keep func(Entry) bool) []Entry {
	var out []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if keep(s.entries[i]) {
			out = append(out, s.entries[i])
		}
	}
	return out
}
