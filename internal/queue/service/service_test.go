package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantrypulse/internal/events"
	"pantrypulse/internal/queue/models"
	"pantrypulse/internal/queue/store"
	sitemodels "pantrypulse/internal/site/models"
	dErrors "pantrypulse/pkg/domain-errors"
	"pantrypulse/pkg/platform/sentinel"
	"pantrypulse/pkg/requestcontext"
)

type stubSites struct {
	sites map[int64]*sitemodels.Site
}

func (s *stubSites) FindByID(_ context.Context, id int64) (*sitemodels.Site, error) {
	site, ok := s.sites[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return site, nil
}

type publishedEvent struct {
	eventType string
	entityID  *int64
	data      map[string]any
}

type recordingBus struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (b *recordingBus) Publish(_ context.Context, eventType, _ string, entityID *int64, data map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{eventType: eventType, entityID: entityID, data: data})
}

func (b *recordingBus) published() []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]publishedEvent{}, b.events...)
}

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
	fail    bool
}

func (a *recordingAudit) Record(_ context.Context, action, _ string, _ int64, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return fmt.Errorf("audit sink down")
	}
	a.actions = append(a.actions, action)
	return nil
}

func newTestService(t *testing.T) (*Service, *recordingBus, *recordingAudit) {
	t.Helper()
	sites := &stubSites{sites: map[int64]*sitemodels.Site{
		3: {ID: 3, Name: "Main Pantry", City: "Pandora"},
	}}
	bus := &recordingBus{}
	audit := &recordingAudit{}
	svc := New(store.NewInMemory(), sites, bus,
		WithLogger(slog.New(slog.DiscardHandler)),
		WithAudit(audit),
	)
	return svc, bus, audit
}

func TestCreateToken(t *testing.T) {
	ctx := context.Background()

	t.Run("issues waiting token and publishes created event", func(t *testing.T) {
		svc, bus, audit := newTestService(t)

		token, err := svc.CreateToken(ctx, 3, "Ada", "555-0100")
		require.NoError(t, err)

		assert.Equal(t, models.StatusWaiting, token.Status)
		assert.Equal(t, 0, token.EstimatedWaitMinutes)
		assert.Regexp(t, `^PAN-\d{8}-0001$`, token.TokenNumber)
		assert.NotZero(t, token.ID)
		assert.Nil(t, token.CalledAt)
		assert.Nil(t, token.CompletedAt)

		published := bus.published()
		require.Len(t, published, 1)
		assert.Equal(t, events.TypeQueueTokenCreated, published[0].eventType)
		assert.Equal(t, token.TokenNumber, published[0].data["tokenNumber"])
		assert.Equal(t, token.SiteID, published[0].data["siteId"])
		assert.Equal(t, []string{"CREATE"}, audit.actions)
	})

	t.Run("multibyte city yields a valid token number", func(t *testing.T) {
		sites := &stubSites{sites: map[int64]*sitemodels.Site{
			5: {ID: 5, Name: "Nordfløj", City: "Århus"},
		}}
		svc := New(store.NewInMemory(), sites, &recordingBus{},
			WithLogger(slog.New(slog.DiscardHandler)),
		)

		token, err := svc.CreateToken(ctx, 5, "Ada", "")
		require.NoError(t, err)
		assert.True(t, utf8.ValidString(token.TokenNumber))
		assert.Regexp(t, `^ÅRH-\d{8}-0001$`, token.TokenNumber)
	})

	t.Run("blank city falls back to UNK", func(t *testing.T) {
		assert.Equal(t, "UNK", cityPrefix("   "))
		assert.Equal(t, "MÜN", cityPrefix("München"))
		assert.Equal(t, "RY", cityPrefix("Ry"))
	})

	t.Run("estimates wait from waiting count", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		for range 3 {
			_, err := svc.CreateToken(ctx, 3, "Earlier", "")
			require.NoError(t, err)
		}
		token, err := svc.CreateToken(ctx, 3, "Ada", "")
		require.NoError(t, err)
		assert.Equal(t, 45, token.EstimatedWaitMinutes)
	})

	t.Run("unknown site yields not found", func(t *testing.T) {
		svc, bus, _ := newTestService(t)

		_, err := svc.CreateToken(ctx, 99, "Ada", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.Empty(t, bus.published())
	})

	t.Run("blank contact name is rejected", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.CreateToken(ctx, 3, "   ", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("audit failure does not fail the create", func(t *testing.T) {
		svc, bus, audit := newTestService(t)
		audit.fail = true

		_, err := svc.CreateToken(ctx, 3, "Ada", "")
		require.NoError(t, err)
		assert.Len(t, bus.published(), 1)
	})
}

func TestCreateTokenConcurrentNumbersAreUnique(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	const workers = 50
	numbers := make(chan string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := svc.CreateToken(ctx, 3, fmt.Sprintf("Visitor %d", i), "")
			if err != nil {
				t.Errorf("create token: %v", err)
				return
			}
			numbers <- token.TokenNumber
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]struct{}, workers)
	for number := range numbers {
		_, dup := seen[number]
		assert.False(t, dup, "duplicate token number %s", number)
		seen[number] = struct{}{}
	}
	assert.Len(t, seen, workers)
}

func TestUpdateTokenStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("called sets calledAt and publishes", func(t *testing.T) {
		svc, bus, audit := newTestService(t)
		token, err := svc.CreateToken(ctx, 3, "Ada", "")
		require.NoError(t, err)

		updated, err := svc.UpdateTokenStatus(ctx, token.TokenNumber, models.StatusCalled)
		require.NoError(t, err)

		assert.Equal(t, models.StatusCalled, updated.Status)
		require.NotNil(t, updated.CalledAt)
		assert.Nil(t, updated.CompletedAt)

		published := bus.published()
		require.Len(t, published, 2) // created + called
		assert.Equal(t, events.TypeQueueTokenCalled, published[1].eventType)
		assert.Equal(t, []string{"CREATE", "UPDATE_STATUS"}, audit.actions)
	})

	t.Run("completed sets completedAt and keeps calledAt", func(t *testing.T) {
		svc, bus, _ := newTestService(t)
		token, err := svc.CreateToken(ctx, 3, "Ada", "")
		require.NoError(t, err)

		called, err := svc.UpdateTokenStatus(ctx, token.TokenNumber, models.StatusCalled)
		require.NoError(t, err)
		calledAt := *called.CalledAt

		completed, err := svc.UpdateTokenStatus(ctx, token.TokenNumber, models.StatusCompleted)
		require.NoError(t, err)

		require.NotNil(t, completed.CompletedAt)
		require.NotNil(t, completed.CalledAt)
		assert.Equal(t, calledAt, *completed.CalledAt)
		published := bus.published()
		assert.Equal(t, events.TypeQueueTokenCompleted, published[len(published)-1].eventType)
	})

	t.Run("cancelled sets completedAt without publishing", func(t *testing.T) {
		svc, bus, _ := newTestService(t)
		token, err := svc.CreateToken(ctx, 3, "Ada", "")
		require.NoError(t, err)

		updated, err := svc.UpdateTokenStatus(ctx, token.TokenNumber, models.StatusCancelled)
		require.NoError(t, err)

		require.NotNil(t, updated.CompletedAt)
		assert.Len(t, bus.published(), 1) // only the created event
	})

	t.Run("calledAt is set at most once", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		token, err := svc.CreateToken(ctx, 3, "Ada", "")
		require.NoError(t, err)

		first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
		_, err = svc.UpdateTokenStatus(requestcontext.WithTime(ctx, first), token.TokenNumber, models.StatusCalled)
		require.NoError(t, err)

		second := first.Add(time.Hour)
		updated, err := svc.UpdateTokenStatus(requestcontext.WithTime(ctx, second), token.TokenNumber, models.StatusCalled)
		require.NoError(t, err)
		assert.Equal(t, first, *updated.CalledAt)
	})

	t.Run("transition legality is not enforced", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		token, err := svc.CreateToken(ctx, 3, "Ada", "")
		require.NoError(t, err)

		_, err = svc.UpdateTokenStatus(ctx, token.TokenNumber, models.StatusCompleted)
		require.NoError(t, err)

		// The current behavior accepts any valid status, including moving a
		// terminal token back to WAITING.
		updated, err := svc.UpdateTokenStatus(ctx, token.TokenNumber, models.StatusWaiting)
		require.NoError(t, err)
		assert.Equal(t, models.StatusWaiting, updated.Status)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		token, err := svc.CreateToken(ctx, 3, "Ada", "")
		require.NoError(t, err)

		_, err = svc.UpdateTokenStatus(ctx, token.TokenNumber, models.TokenStatus("LOST"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("missing token yields not found", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.UpdateTokenStatus(ctx, "PAN-20240101-9999", models.StatusCalled)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestQueueReads(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateToken(ctx, 3, "First", "")
	require.NoError(t, err)
	second, err := svc.CreateToken(ctx, 3, "Second", "")
	require.NoError(t, err)

	_, err = svc.UpdateTokenStatus(ctx, first.TokenNumber, models.StatusCalled)
	require.NoError(t, err)

	got, err := svc.GetTokenByNumber(ctx, second.TokenNumber)
	require.NoError(t, err)
	assert.Equal(t, "Second", got.ContactName)

	waiting, err := svc.GetWaitingTokens(ctx, 3)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, second.TokenNumber, waiting[0].TokenNumber)

	all, err := svc.GetTokensBySite(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
