package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantrypulse/internal/platform/metrics"
)

func getHealth(t *testing.T, checks []HealthCheck) (int, map[string]any) {
	t.Helper()
	var httpMetrics *metrics.HTTP // nil disables recording
	router := NewRouter(slog.New(slog.DiscardHandler), httpMetrics, checks)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthzWithoutChecks(t *testing.T) {
	code, body := getHealth(t, nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.NotContains(t, body, "dependencies")
}

func TestHealthzReportsDependencies(t *testing.T) {
	checks := []HealthCheck{
		{Name: "postgres", Check: func(context.Context) error { return nil }},
		{Name: "redis", Check: func(context.Context) error { return nil }},
	}

	code, body := getHealth(t, checks)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]any{"postgres": "ok", "redis": "ok"}, body["dependencies"])
}

func TestHealthzDegradesOnFailingDependency(t *testing.T) {
	checks := []HealthCheck{
		{Name: "postgres", Check: func(context.Context) error { return nil }},
		{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	}

	code, body := getHealth(t, checks)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"postgres": "ok", "redis": "unavailable"}, body["dependencies"])
}
