package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pantrypulse/internal/webhook/models"
	dErrors "pantrypulse/pkg/domain-errors"
	"pantrypulse/pkg/platform/httputil"
)

// Service defines the registry operations the transport layer needs.
type Service interface {
	Register(ctx context.Context, url string, eventTypes []string, description string) (*models.Webhook, error)
	List(ctx context.Context) ([]*models.Webhook, error)
	SetActive(ctx context.Context, id int64, active bool) (*models.Webhook, error)
	Delete(ctx context.Context, id int64) error
}

// Handler wires webhook registry endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a webhook handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/v1/webhooks", h.HandleRegister)
	r.Get("/api/v1/webhooks", h.HandleList)
	r.Patch("/api/v1/webhooks/{webhookID}", h.HandleSetActive)
	r.Delete("/api/v1/webhooks/{webhookID}", h.HandleDelete)
}

type registerRequest struct {
	URL         string   `json:"url"`
	Events      []string `json:"events"`
	Description string   `json:"description"`
}

// HandleRegister handles POST /api/v1/webhooks.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[registerRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	hook, err := h.service.Register(ctx, req.URL, req.Events, req.Description)
	if err != nil {
		h.logger.ErrorContext(ctx, "webhook registration failed", "url", req.URL, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, hook)
}

// HandleList handles GET /api/v1/webhooks.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hooks)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// HandleSetActive handles PATCH /api/v1/webhooks/{webhookID}.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	id, err := webhookIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := httputil.Decode[setActiveRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	hook, err := h.service.SetActive(r.Context(), id, req.Active)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hook)
}

// HandleDelete handles DELETE /api/v1/webhooks/{webhookID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := webhookIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func webhookIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "webhookID"), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid webhook id")
	}
	return id, nil
}
