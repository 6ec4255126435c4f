// Package service manages inventory items and publishes stock events,
// including the low-stock alerts the distribution plane fans out.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pantrypulse/internal/events"
	"pantrypulse/internal/inventory/models"
	dErrors "pantrypulse/pkg/domain-errors"
	"pantrypulse/pkg/platform/sentinel"
)

// Quantities below this publish inventory.low on adjustment.
const lowStockThreshold = 10

// ItemStore persists inventory items.
type ItemStore interface {
	Save(ctx context.Context, item *models.Item) (*models.Item, error)
	FindByID(ctx context.Context, id int64) (*models.Item, error)
	List(ctx context.Context) ([]*models.Item, error)
	ListBelowQty(ctx context.Context, threshold int) ([]*models.Item, error)
}

// EventPublisher hands committed state changes to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, entity string, entityID *int64, data map[string]any)
}

// Service owns inventory mutations and the events they produce.
type Service struct {
	items  ItemStore
	bus    EventPublisher
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the inventory service.
func New(items ItemStore, bus EventPublisher, opts ...Option) *Service {
	s := &Service{
		items:  items,
		bus:    bus,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists the item and publishes inventory.updated.
func (s *Service) Save(ctx context.Context, item *models.Item) (*models.Item, error) {
	item.SKU = strings.TrimSpace(item.SKU)
	if item.SKU == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "item sku is required")
	}

	saved, err := s.items.Save(ctx, item)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("inventory item not found: %d", item.ID))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save inventory item")
	}

	s.bus.Publish(ctx, events.TypeInventoryUpdated, "InventoryItem", &saved.ID, map[string]any{
		"sku": saved.SKU,
		"qty": saved.Qty,
	})
	return saved, nil
}

// AdjustQuantity applies a signed adjustment to the item's quantity. When the
// resulting quantity drops below the low-stock threshold, inventory.low is
// published with the prior quantity before the usual inventory.updated.
func (s *Service) AdjustQuantity(ctx context.Context, id int64, adjustment int) (*models.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("inventory item not found: %d", id))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load inventory item")
	}

	previousQty := item.Qty
	item.Qty += adjustment

	updated, err := s.items.Save(ctx, item)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save inventory item")
	}

	if updated.Qty < lowStockThreshold {
		s.bus.Publish(ctx, events.TypeInventoryLow, "InventoryItem", &updated.ID, map[string]any{
			"sku":         updated.SKU,
			"qty":         updated.Qty,
			"previousQty": previousQty,
		})
		s.logger.InfoContext(ctx, "inventory low",
			"item_id", updated.ID, "sku", updated.SKU, "qty", updated.Qty)
	}

	s.bus.Publish(ctx, events.TypeInventoryUpdated, "InventoryItem", &updated.ID, map[string]any{
		"sku":        updated.SKU,
		"qty":        updated.Qty,
		"adjustment": adjustment,
	})
	return updated, nil
}

// List returns every inventory item.
func (s *Service) List(ctx context.Context) ([]*models.Item, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list inventory")
	}
	return items, nil
}

// FindLowStock returns items below the given quantity threshold.
func (s *Service) FindLowStock(ctx context.Context, threshold int) ([]*models.Item, error) {
	items, err := s.items.ListBelowQty(ctx, threshold)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list low stock")
	}
	return items, nil
}
