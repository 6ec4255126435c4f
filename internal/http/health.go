package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"pantrypulse/pkg/platform/httputil"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes a named dependency. Check returns nil when the
// dependency is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// healthHandler runs every configured check. Any failure degrades the
// response to 503 so load balancers stop routing here.
func healthHandler(logger *slog.Logger, checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok"}
		deps := make(map[string]string, len(checks))
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"dependency", check.Name,
					"error", err,
				)
				deps[check.Name] = "unavailable"
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				continue
			}
			deps[check.Name] = "ok"
		}
		if len(deps) > 0 {
			body["dependencies"] = deps
		}
		httputil.WriteJSON(w, status, body)
	}
}
