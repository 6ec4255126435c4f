// Package service manages distribution sites and publishes the site
// lifecycle events the distribution plane fans out.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pantrypulse/internal/events"
	"pantrypulse/internal/site/models"
	dErrors "pantrypulse/pkg/domain-errors"
	"pantrypulse/pkg/platform/sentinel"
	"pantrypulse/pkg/requestcontext"
)

// SiteStore persists sites.
type SiteStore interface {
	Save(ctx context.Context, site *models.Site) (*models.Site, error)
	FindByID(ctx context.Context, id int64) (*models.Site, error)
	Delete(ctx context.Context, id int64) error
}

// EventPublisher hands committed state changes to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, entity string, entityID *int64, data map[string]any)
}

// AuditRecorder records audit entries. Failures are non-fatal.
type AuditRecorder interface {
	Record(ctx context.Context, action, entity string, entityID int64, details string) error
}

// Service owns site mutations and the events they produce.
type Service struct {
	sites  SiteStore
	bus    EventPublisher
	audit  AuditRecorder
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAudit(audit AuditRecorder) Option {
	return func(s *Service) { s.audit = audit }
}

// New constructs the site service.
func New(sites SiteStore, bus EventPublisher, opts ...Option) *Service {
	s := &Service{
		sites:  sites,
		bus:    bus,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveSite creates the site when its ID is zero and updates it otherwise.
// Creation publishes site.created, updates publish site.updated, both with
// the site's name and city.
func (s *Service) SaveSite(ctx context.Context, site *models.Site) (*models.Site, error) {
	site.Name = strings.TrimSpace(site.Name)
	if site.Name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "site name is required")
	}
	if strings.TrimSpace(site.City) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "site city is required")
	}

	creating := site.ID == 0
	if creating {
		site.Open = true
		site.CreatedAt = requestcontext.Now(ctx)
	}

	saved, err := s.sites.Save(ctx, site)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("site not found: %d", site.ID))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save site")
	}

	action := "UPDATE"
	eventType := events.TypeSiteUpdated
	if creating {
		action = "CREATE"
		eventType = events.TypeSiteCreated
	}
	s.recordAudit(ctx, action, saved.ID, "Site: "+saved.Name)

	s.bus.Publish(ctx, eventType, "Site", &saved.ID, map[string]any{
		"name": saved.Name,
		"city": saved.City,
	})

	s.logger.InfoContext(ctx, "site saved", "site_id", saved.ID, "name", saved.Name, "created", creating)
	return saved, nil
}

// DeleteSite removes the site and publishes site.closed.
func (s *Service) DeleteSite(ctx context.Context, id int64) error {
	if err := s.sites.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("site not found: %d", id))
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete site")
	}

	s.recordAudit(ctx, "DELETE", id, "Site deleted")

	s.bus.Publish(ctx, events.TypeSiteClosed, "Site", &id, map[string]any{
		"action": "deleted",
	})

	s.logger.InfoContext(ctx, "site deleted", "site_id", id)
	return nil
}

// GetSiteByID looks up a site.
func (s *Service) GetSiteByID(ctx context.Context, id int64) (*models.Site, error) {
	site, err := s.sites.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("site not found: %d", id))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load site")
	}
	return site, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, siteID int64, details string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, "Site", siteID, details); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "action", action, "site_id", siteID, "error", err)
	}
}
