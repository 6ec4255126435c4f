package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantrypulse/internal/events"
	"pantrypulse/internal/site/service"
	"pantrypulse/internal/site/store"
)

type recordingBus struct {
	mu    sync.Mutex
	types []string
}

func (b *recordingBus) Publish(_ context.Context, eventType, _ string, _ *int64, _ map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.types = append(b.types, eventType)
}

func (b *recordingBus) published() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.types...)
}

func newTestRouter(t *testing.T) (chi.Router, *recordingBus) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	bus := &recordingBus{}
	svc := service.New(store.NewInMemory(), bus, service.WithLogger(logger))

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r, bus
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSiteLifecycle(t *testing.T) {
	r, bus := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/sites", map[string]any{
		"name": "Main Pantry",
		"city": "Pandora",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Open bool   `json:"open"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.True(t, created.Open, "new sites start open")

	rec = doJSON(t, r, http.MethodGet, "/api/v1/sites/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPut, "/api/v1/sites/1", map[string]any{
		"name": "Main Pantry",
		"city": "Pandora",
		"open": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated struct {
		Open bool `json:"open"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.False(t, updated.Open)

	rec = doJSON(t, r, http.MethodDelete, "/api/v1/sites/1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/sites/1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, []string{
		events.TypeSiteCreated,
		events.TypeSiteUpdated,
		events.TypeSiteClosed,
	}, bus.published())
}

func TestCreateRejectsMissingCity(t *testing.T) {
	r, bus := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/sites", map[string]any{
		"name": "Main Pantry",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "bad_request", envelope.Error)
	assert.Empty(t, bus.published())
}

func TestUpdateUnknownSite(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPut, "/api/v1/sites/42", map[string]any{
		"name": "Main Pantry",
		"city": "Pandora",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidSiteID(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodDelete, "/api/v1/sites/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
