// Package httpapi assembles the HTTP router from the domain handlers.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pantrypulse/internal/platform/metrics"
	"pantrypulse/internal/platform/middleware"
)

// Registrar mounts a domain's endpoints on the router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires middleware, operational endpoints, and every domain
// handler passed in. The health endpoint reports each configured dependency.
func NewRouter(logger *slog.Logger, httpMetrics *metrics.HTTP, checks []HealthCheck, handlers ...Registrar) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestContext)
	r.Use(middleware.RequestLogger(logger))
	r.Use(httpMetrics.Middleware)

	r.Get("/healthz", healthHandler(logger, checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
