// Package service owns the queue token lifecycle: intake, status
// transitions, and the events each transition publishes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pantrypulse/internal/events"
	"pantrypulse/internal/queue/metrics"
	"pantrypulse/internal/queue/models"
	sitemodels "pantrypulse/internal/site/models"
	dErrors "pantrypulse/pkg/domain-errors"
	"pantrypulse/pkg/platform/sentinel"
	"pantrypulse/pkg/requestcontext"
)

// Each waiting visitor adds this much to a new token's wait estimate.
const minutesPerWaitingVisitor = 15

// TokenStore persists queue tokens.
type TokenStore interface {
	Save(ctx context.Context, token *models.QueueToken) (*models.QueueToken, error)
	FindByTokenNumber(ctx context.Context, tokenNumber string) (*models.QueueToken, error)
	CountWaiting(ctx context.Context, siteID int64) (int, error)
	ListWaitingBySite(ctx context.Context, siteID int64) ([]*models.QueueToken, error)
	ListBySite(ctx context.Context, siteID int64) ([]*models.QueueToken, error)
	Count(ctx context.Context) (int64, error)
}

// SiteFinder resolves the site a token is issued for.
type SiteFinder interface {
	FindByID(ctx context.Context, id int64) (*sitemodels.Site, error)
}

// EventPublisher hands committed state changes to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, entity string, entityID *int64, data map[string]any)
}

// AuditRecorder records audit entries. Failures are non-fatal for the
// triggering operation; the service inspects and discards them deliberately.
type AuditRecorder interface {
	Record(ctx context.Context, action, entity string, entityID int64, details string) error
}

// Service orchestrates the token lifecycle.
type Service struct {
	tokens  TokenStore
	sites   SiteFinder
	audit   AuditRecorder
	bus     EventPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics

	// Global token-number sequence. Seeded once from the store's total count,
	// then advanced atomically so concurrent creates never collide.
	seq     atomic.Int64
	seedSeq sync.Once
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAudit(audit AuditRecorder) Option {
	return func(s *Service) { s.audit = audit }
}

// New constructs the queue service.
func New(tokens TokenStore, sites SiteFinder, bus EventPublisher, opts ...Option) *Service {
	s := &Service{
		tokens: tokens,
		sites:  sites,
		bus:    bus,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateToken issues a new WAITING token for the given site and publishes
// queue.token.created once the token is persisted.
func (s *Service) CreateToken(ctx context.Context, siteID int64, contactName, contactPhone string) (*models.QueueToken, error) {
	contactName = strings.TrimSpace(contactName)
	if contactName == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "contact name is required")
	}

	site, err := s.sites.FindByID(ctx, siteID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("site not found: %d", siteID))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve site")
	}

	waiting, err := s.tokens.CountWaiting(ctx, siteID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count waiting tokens")
	}

	now := requestcontext.Now(ctx)
	token := &models.QueueToken{
		SiteID:               site.ID,
		TokenNumber:          s.nextTokenNumber(ctx, site, now),
		Status:               models.StatusWaiting,
		ContactName:          contactName,
		ContactPhone:         strings.TrimSpace(contactPhone),
		EstimatedWaitMinutes: waiting * minutesPerWaitingVisitor,
		CreatedAt:            now,
	}

	saved, err := s.tokens.Save(ctx, token)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save token")
	}

	s.recordAudit(ctx, "CREATE", saved.ID,
		fmt.Sprintf("Token %s for %s", saved.TokenNumber, saved.ContactName))

	s.bus.Publish(ctx, events.TypeQueueTokenCreated, "QueueToken", &saved.ID, map[string]any{
		"tokenNumber":   saved.TokenNumber,
		"siteId":        saved.SiteID,
		"estimatedWait": saved.EstimatedWaitMinutes,
	})

	s.metrics.IncrementIssued()
	s.metrics.ObserveEstimatedWait(saved.EstimatedWaitMinutes)

	return saved, nil
}

// UpdateTokenStatus moves a token to newStatus. Any valid status value is
// accepted and overwrites the current one; transition legality is not
// enforced. CalledAt and CompletedAt are set only the first time the
// corresponding transition fires.
func (s *Service) UpdateTokenStatus(ctx context.Context, tokenNumber string, newStatus models.TokenStatus) (*models.QueueToken, error) {
	if !newStatus.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown status: %s", newStatus))
	}

	token, err := s.tokens.FindByTokenNumber(ctx, tokenNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("token not found: %s", tokenNumber))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load token")
	}

	now := requestcontext.Now(ctx)
	token.Status = newStatus

	var eventType string
	switch newStatus {
	case models.StatusCalled:
		if token.CalledAt == nil {
			token.CalledAt = &now
		}
		eventType = events.TypeQueueTokenCalled
	case models.StatusCompleted:
		if token.CompletedAt == nil {
			token.CompletedAt = &now
		}
		eventType = events.TypeQueueTokenCompleted
	case models.StatusCancelled, models.StatusNoShow:
		if token.CompletedAt == nil {
			token.CompletedAt = &now
		}
	}

	updated, err := s.tokens.Save(ctx, token)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save token")
	}

	s.recordAudit(ctx, "UPDATE_STATUS", updated.ID,
		fmt.Sprintf("Status changed to %s", newStatus))

	// Persisted first; live observers may see the event marginally before the
	// updated record is queryable elsewhere, which is acceptable for an
	// informational feed.
	if eventType != "" {
		s.bus.Publish(ctx, eventType, "QueueToken", &updated.ID, map[string]any{
			"tokenNumber": updated.TokenNumber,
			"siteId":      updated.SiteID,
		})
	}

	s.metrics.IncrementStatusUpdate(string(newStatus))

	return updated, nil
}

// GetTokenByNumber returns the token with the given public number.
func (s *Service) GetTokenByNumber(ctx context.Context, tokenNumber string) (*models.QueueToken, error) {
	token, err := s.tokens.FindByTokenNumber(ctx, tokenNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("token not found: %s", tokenNumber))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load token")
	}
	return token, nil
}

// GetWaitingTokens returns a site's WAITING tokens, oldest first.
func (s *Service) GetWaitingTokens(ctx context.Context, siteID int64) ([]*models.QueueToken, error) {
	if _, err := s.sites.FindByID(ctx, siteID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("site not found: %d", siteID))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve site")
	}
	tokens, err := s.tokens.ListWaitingBySite(ctx, siteID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tokens")
	}
	return tokens, nil
}

// GetTokensBySite returns all of a site's tokens, newest first.
func (s *Service) GetTokensBySite(ctx context.Context, siteID int64) ([]*models.QueueToken, error) {
	tokens, err := s.tokens.ListBySite(ctx, siteID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tokens")
	}
	return tokens, nil
}

// nextTokenNumber combines a 3-letter city prefix, the current date, and the
// global sequence. Uniqueness comes from the sequence alone; the prefix and
// date are cosmetic.
func (s *Service) nextTokenNumber(ctx context.Context, site *sitemodels.Site, now time.Time) string {
	s.seedSeq.Do(func() {
		count, err := s.tokens.Count(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to seed token sequence, starting at zero", "error", err)
			return
		}
		s.seq.Store(count)
	})
	seq := s.seq.Add(1)
	return fmt.Sprintf("%s-%s-%04d", cityPrefix(site.City), now.Format("20060102"), seq)
}

// cityPrefix truncates by runes so multibyte city names keep valid UTF-8.
func cityPrefix(city string) string {
	prefix := strings.ToUpper(strings.TrimSpace(city))
	if runes := []rune(prefix); len(runes) > 3 {
		prefix = string(runes[:3])
	}
	if prefix == "" {
		prefix = "UNK"
	}
	return prefix
}

// recordAudit emits an audit entry. Audit failures never fail the triggering
// operation; the error is logged and dropped here, on purpose.
func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, details string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, "QueueToken", entityID, details); err != nil {
		s.logger.ErrorContext(ctx, "audit record failed",
			"action", action,
			"entity_id", entityID,
			"error", err,
		)
	}
}
