package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pantrypulse/internal/inventory/models"
	dErrors "pantrypulse/pkg/domain-errors"
	"pantrypulse/pkg/platform/httputil"
)

// Service defines the inventory operations the transport layer needs.
type Service interface {
	Save(ctx context.Context, item *models.Item) (*models.Item, error)
	AdjustQuantity(ctx context.Context, id int64, adjustment int) (*models.Item, error)
	List(ctx context.Context) ([]*models.Item, error)
	FindLowStock(ctx context.Context, threshold int) ([]*models.Item, error)
}

// Handler wires inventory endpoints to the inventory service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an inventory handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts inventory endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/v1/inventory", h.HandleSave)
	r.Get("/api/v1/inventory", h.HandleList)
	r.Get("/api/v1/inventory/low", h.HandleLowStock)
	r.Post("/api/v1/inventory/{itemID}/adjust", h.HandleAdjust)
}

// HandleSave handles POST /api/v1/inventory. A zero ID creates the item.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	item, err := httputil.Decode[models.Item](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	saved, err := h.service.Save(ctx, &item)
	if err != nil {
		h.logger.ErrorContext(ctx, "inventory save failed", "sku", item.SKU, "error", err)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if item.ID == 0 {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, saved)
}

// HandleList handles GET /api/v1/inventory.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

// HandleLowStock handles GET /api/v1/inventory/low?threshold=N.
func (h *Handler) HandleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := 10
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid threshold"))
			return
		}
		threshold = parsed
	}

	items, err := h.service.FindLowStock(r.Context(), threshold)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

type adjustRequest struct {
	Adjustment int `json:"adjustment"`
}

// HandleAdjust handles POST /api/v1/inventory/{itemID}/adjust.
func (h *Handler) HandleAdjust(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := itemIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := httputil.Decode[adjustRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	item, err := h.service.AdjustQuantity(ctx, id, req.Adjustment)
	if err != nil {
		h.logger.ErrorContext(ctx, "inventory adjustment failed", "item_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

func itemIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid item id")
	}
	return id, nil
}
