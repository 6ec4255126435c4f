package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pantrypulse/internal/queue/models"
	dErrors "pantrypulse/pkg/domain-errors"
	"pantrypulse/pkg/platform/httputil"
	"pantrypulse/pkg/requestcontext"
)

// Service defines the queue operations the transport layer needs.
type Service interface {
	CreateToken(ctx context.Context, siteID int64, contactName, contactPhone string) (*models.QueueToken, error)
	UpdateTokenStatus(ctx context.Context, tokenNumber string, status models.TokenStatus) (*models.QueueToken, error)
	GetTokenByNumber(ctx context.Context, tokenNumber string) (*models.QueueToken, error)
	GetWaitingTokens(ctx context.Context, siteID int64) ([]*models.QueueToken, error)
	GetTokensBySite(ctx context.Context, siteID int64) ([]*models.QueueToken, error)
}

// Handler wires queue endpoints to the queue service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a queue handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts queue endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/v1/queue/tokens", h.HandleCreateToken)
	r.Get("/api/v1/queue/tokens/{tokenNumber}", h.HandleGetToken)
	r.Patch("/api/v1/queue/tokens/{tokenNumber}/status", h.HandleUpdateStatus)
	r.Get("/api/v1/queue/sites/{siteID}/waiting", h.HandleWaiting)
	r.Get("/api/v1/queue/sites/{siteID}/tokens", h.HandleSiteTokens)
}

type createTokenRequest struct {
	SiteID       int64  `json:"siteId"`
	ContactName  string `json:"contactName"`
	ContactPhone string `json:"contactPhone"`
}

// HandleCreateToken handles POST /api/v1/queue/tokens.
func (h *Handler) HandleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[createTokenRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.service.CreateToken(ctx, req.SiteID, req.ContactName, req.ContactPhone)
	if err != nil {
		h.logger.ErrorContext(ctx, "create token failed",
			"request_id", requestcontext.RequestID(ctx),
			"site_id", req.SiteID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, token)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus handles PATCH /api/v1/queue/tokens/{tokenNumber}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenNumber := chi.URLParam(r, "tokenNumber")

	req, err := httputil.Decode[updateStatusRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.service.UpdateTokenStatus(ctx, tokenNumber, models.TokenStatus(req.Status))
	if err != nil {
		h.logger.ErrorContext(ctx, "status update failed",
			"request_id", requestcontext.RequestID(ctx),
			"token_number", tokenNumber,
			"status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, token)
}

// HandleGetToken handles GET /api/v1/queue/tokens/{tokenNumber}.
func (h *Handler) HandleGetToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.GetTokenByNumber(r.Context(), chi.URLParam(r, "tokenNumber"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, token)
}

// HandleWaiting handles GET /api/v1/queue/sites/{siteID}/waiting.
func (h *Handler) HandleWaiting(w http.ResponseWriter, r *http.Request) {
	siteID, err := siteIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tokens, err := h.service.GetWaitingTokens(r.Context(), siteID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokens)
}

// HandleSiteTokens handles GET /api/v1/queue/sites/{siteID}/tokens.
func (h *Handler) HandleSiteTokens(w http.ResponseWriter, r *http.Request) {
	siteID, err := siteIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tokens, err := h.service.GetTokensBySite(r.Context(), siteID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokens)
}

func siteIDParam(r *http.Request) (int64, error) {
	siteID, err := strconv.ParseInt(chi.URLParam(r, "siteID"), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid site id")
	}
	return siteID, nil
}
