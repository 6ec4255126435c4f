package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pantrypulse/internal/site/models"
	dErrors "pantrypulse/pkg/domain-errors"
	"pantrypulse/pkg/platform/httputil"
)

// Service defines the site operations the transport layer needs.
type Service interface {
	SaveSite(ctx context.Context, site *models.Site) (*models.Site, error)
	GetSiteByID(ctx context.Context, id int64) (*models.Site, error)
	DeleteSite(ctx context.Context, id int64) error
}

// Handler wires site endpoints to the site service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a site handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts site endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/v1/sites", h.HandleCreate)
	r.Get("/api/v1/sites/{siteID}", h.HandleGet)
	r.Put("/api/v1/sites/{siteID}", h.HandleUpdate)
	r.Delete("/api/v1/sites/{siteID}", h.HandleDelete)
}

type siteRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Open    *bool  `json:"open"`
}

// HandleCreate handles POST /api/v1/sites.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[siteRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	site, err := h.service.SaveSite(ctx, &models.Site{
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "site creation failed", "name", req.Name, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, site)
}

// HandleGet handles GET /api/v1/sites/{siteID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := siteIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	site, err := h.service.GetSiteByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, site)
}

// HandleUpdate handles PUT /api/v1/sites/{siteID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := siteIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := httputil.Decode[siteRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	current, err := h.service.GetSiteByID(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	current.Name = req.Name
	current.Address = req.Address
	current.City = req.City
	current.State = req.State
	if req.Open != nil {
		current.Open = *req.Open
	}

	site, err := h.service.SaveSite(ctx, current)
	if err != nil {
		h.logger.ErrorContext(ctx, "site update failed", "site_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, site)
}

// HandleDelete handles DELETE /api/v1/sites/{siteID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := siteIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteSite(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func siteIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "siteID"), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid site id")
	}
	return id, nil
}
