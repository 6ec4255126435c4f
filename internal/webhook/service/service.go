// Package service manages the webhook registry: registering endpoints,
// toggling them, and removing them. Delivery lives in the dispatcher package.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"pantrypulse/internal/webhook/models"
	dErrors "pantrypulse/pkg/domain-errors"
	"pantrypulse/pkg/platform/sentinel"
	"pantrypulse/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/registry_store_mock.go -package=mocks

// RegistryStore persists webhook subscriptions.
type RegistryStore interface {
	Create(ctx context.Context, hook *models.Webhook) (*models.Webhook, error)
	FindByID(ctx context.Context, id int64) (*models.Webhook, error)
	List(ctx context.Context) ([]*models.Webhook, error)
	Update(ctx context.Context, hook *models.Webhook) (*models.Webhook, error)
	Delete(ctx context.Context, id int64) error
}

// Service implements registry operations.
type Service struct {
	hooks  RegistryStore
	logger *slog.Logger
}

// New constructs the registry service.
func New(hooks RegistryStore, logger *slog.Logger) *Service {
	return &Service{hooks: hooks, logger: logger}
}

// Register creates an active subscription for the given URL and event types.
func (s *Service) Register(ctx context.Context, rawURL string, eventTypes []string, description string) (*models.Webhook, error) {
	rawURL = strings.TrimSpace(rawURL)
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "webhook url must be absolute")
	}
	if len(eventTypes) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "at least one event type is required")
	}

	hook := &models.Webhook{
		URL:         rawURL,
		Active:      true,
		Events:      dedupe(eventTypes),
		Description: strings.TrimSpace(description),
		CreatedAt:   requestcontext.Now(ctx),
	}

	created, err := s.hooks.Create(ctx, hook)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register webhook")
	}

	s.logger.InfoContext(ctx, "webhook registered",
		"webhook_id", created.ID,
		"url", created.URL,
		"events", created.Events,
	)
	return created, nil
}

// List returns every registered webhook.
func (s *Service) List(ctx context.Context) ([]*models.Webhook, error) {
	hooks, err := s.hooks.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list webhooks")
	}
	return hooks, nil
}

// SetActive flips a subscription's active flag. Deactivation takes effect for
// subsequently published events only; in-flight deliveries run to completion.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (*models.Webhook, error) {
	hook, err := s.hooks.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, id)
	}

	hook.Active = active
	updated, err := s.hooks.Update(ctx, hook)
	if err != nil {
		return nil, translateNotFound(err, id)
	}

	s.logger.InfoContext(ctx, "webhook toggled", "webhook_id", id, "active", active)
	return updated, nil
}

// Delete removes a subscription.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.hooks.Delete(ctx, id); err != nil {
		return translateNotFound(err, id)
	}
	s.logger.InfoContext(ctx, "webhook deleted", "webhook_id", id)
	return nil
}

func translateNotFound(err error, id int64) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("webhook not found: %d", id))
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "webhook store failed")
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
