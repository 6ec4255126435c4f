package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"pantrypulse/internal/site/models"
)

const (
	siteKeyPrefix  = "site:id:"
	defaultSiteTTL = 5 * time.Minute
)

// Store is the site persistence contract CachedStore wraps.
type Store interface {
	Save(ctx context.Context, site *models.Site) (*models.Site, error)
	FindByID(ctx context.Context, id int64) (*models.Site, error)
	Delete(ctx context.Context, id int64) error
}

// CachedStore is a Redis read-through cache over a site store. Lookups hit
// Redis first; writes go to the inner store and refresh or drop the cached
// entry. Cache failures are logged and never fail the request.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// CachedStoreOption configures a CachedStore.
type CachedStoreOption func(*CachedStore)

// WithTTL overrides the cached entry lifetime.
func WithTTL(ttl time.Duration) CachedStoreOption {
	return func(s *CachedStore) {
		s.ttl = ttl
	}
}

// NewCached wraps inner with a Redis read-through cache.
func NewCached(inner Store, client *redis.Client, logger *slog.Logger, opts ...CachedStoreOption) *CachedStore {
	s := &CachedStore{
		inner:  inner,
		client: client,
		ttl:    defaultSiteTTL,
		logger: logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// FindByID returns the cached site when present, otherwise loads it from the
// inner store and caches the result.
func (s *CachedStore) FindByID(ctx context.Context, id int64) (*models.Site, error) {
	key := siteKey(id)

	payload, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var site models.Site
		if err := json.Unmarshal(payload, &site); err == nil {
			return &site, nil
		}
		s.logger.WarnContext(ctx, "corrupt cached site entry dropped", "key", key)
		_ = s.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		s.logger.WarnContext(ctx, "site cache lookup failed", "key", key, "error", err)
	}

	site, err := s.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(ctx, site)
	return site, nil
}

// Save writes through to the inner store and refreshes the cache entry.
func (s *CachedStore) Save(ctx context.Context, site *models.Site) (*models.Site, error) {
	stored, err := s.inner.Save(ctx, site)
	if err != nil {
		return nil, err
	}
	s.put(ctx, stored)
	return stored, nil
}

// Delete removes the site from the inner store and drops the cache entry.
func (s *CachedStore) Delete(ctx context.Context, id int64) error {
	if err := s.inner.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.client.Del(ctx, siteKey(id)).Err(); err != nil {
		s.logger.WarnContext(ctx, "site cache invalidation failed", "site_id", id, "error", err)
	}
	return nil
}

func (s *CachedStore) put(ctx context.Context, site *models.Site) {
	payload, err := json.Marshal(site)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, siteKey(site.ID), payload, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "site cache write failed", "site_id", site.ID, "error", err)
	}
}

func siteKey(id int64) string {
	return fmt.Sprintf("%s%d", siteKeyPrefix, id)
}
