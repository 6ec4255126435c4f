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
	"pantrypulse/internal/inventory/service"
	"pantrypulse/internal/inventory/store"
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

func TestSaveListAdjust(t *testing.T) {
	r, bus := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/inventory", map[string]any{
		"siteId": 1,
		"sku":    "BEANS-001",
		"name":   "Canned Beans",
		"qty":    40,
		"unit":   "can",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID  int64 `json:"id"`
		Qty int   `json:"qty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/inventory", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	rec = doJSON(t, r, http.MethodPost, "/api/v1/inventory/1/adjust", map[string]any{
		"adjustment": -35,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var adjusted struct {
		Qty int `json:"qty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &adjusted))
	assert.Equal(t, 5, adjusted.Qty)

	// Dropping below the low-stock threshold publishes the alert before the
	// update event.
	assert.Equal(t, []string{
		events.TypeInventoryUpdated,
		events.TypeInventoryLow,
		events.TypeInventoryUpdated,
	}, bus.published())

	rec = doJSON(t, r, http.MethodGet, "/api/v1/inventory/low?threshold=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestSaveRejectsMissingSKU(t *testing.T) {
	r, bus := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/inventory", map[string]any{
		"name": "Canned Beans",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, bus.published())
}

func TestAdjustUnknownItem(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/inventory/42/adjust", map[string]any{
		"adjustment": -1,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidThreshold(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/inventory/low?threshold=lots", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
