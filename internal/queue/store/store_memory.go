// Package store persists queue tokens. The in-memory implementation backs
// development and tests; PostgresStore is the production variant.
package store

import (
	"context"
	"sort"
	"sync"

	"pantrypulse/internal/queue/models"
	"pantrypulse/pkg/platform/sentinel"
)

// InMemory implements the queue token store with a mutex-guarded map.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[int64]*models.QueueToken
	byNumber map[string]int64
	nextID   int64
}

// NewInMemory creates an empty in-memory token store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[int64]*models.QueueToken),
		byNumber: make(map[string]int64),
	}
}

// Save inserts the token when its ID is zero, otherwise updates it. The
// returned token carries the assigned ID.
func (s *InMemory) Save(_ context.Context, token *models.QueueToken) (*models.QueueToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *token
	if stored.ID == 0 {
		if _, taken := s.byNumber[stored.TokenNumber]; taken {
			return nil, sentinel.ErrConflict
		}
		s.nextID++
		stored.ID = s.nextID
	} else if _, ok := s.byID[stored.ID]; !ok {
		return nil, sentinel.ErrNotFound
	}

	s.byID[stored.ID] = &stored
	s.byNumber[stored.TokenNumber] = stored.ID

	result := stored
	return &result, nil
}

// FindByTokenNumber looks up a token by its public number.
func (s *InMemory) FindByTokenNumber(_ context.Context, tokenNumber string) (*models.QueueToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byNumber[tokenNumber]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	token := *s.byID[id]
	return &token, nil
}

// CountWaiting returns the number of WAITING tokens for a site.
func (s *InMemory) CountWaiting(_ context.Context, siteID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, token := range s.byID {
		if token.SiteID == siteID && token.Status == models.StatusWaiting {
			count++
		}
	}
	return count, nil
}

// ListWaitingBySite returns a site's WAITING tokens, oldest first.
func (s *InMemory) ListWaitingBySite(_ context.Context, siteID int64) ([]*models.QueueToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tokens []*models.QueueToken
	for _, token := range s.byID {
		if token.SiteID == siteID && token.Status == models.StatusWaiting {
			copied := *token
			tokens = append(tokens, &copied)
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].CreatedAt.Before(tokens[j].CreatedAt) })
	return tokens, nil
}

// ListBySite returns all of a site's tokens, newest first.
func (s *InMemory) ListBySite(_ context.Context, siteID int64) ([]*models.QueueToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tokens []*models.QueueToken
	for _, token := range s.byID {
		if token.SiteID == siteID {
			copied := *token
			tokens = append(tokens, &copied)
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].CreatedAt.After(tokens[j].CreatedAt) })
	return tokens, nil
}

// Count returns the total number of tokens ever issued. The service seeds its
// token-number sequence from this.
func (s *InMemory) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}
