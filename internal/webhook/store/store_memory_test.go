package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pantrypulse/internal/events"
	"pantrypulse/internal/webhook/models"
	"pantrypulse/pkg/platform/sentinel"
)

type WebhookStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
}

func TestWebhookStoreSuite(t *testing.T) {
	suite.Run(t, new(WebhookStoreSuite))
}

func (s *WebhookStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *WebhookStoreSuite) seed(url string, active bool, eventTypes ...string) *models.Webhook {
	hook, err := s.store.Create(s.ctx, &models.Webhook{
		URL:       url,
		Active:    active,
		Events:    eventTypes,
		CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	return hook
}

func (s *WebhookStoreSuite) TestCreateAssignsSequentialIDs() {
	first := s.seed("https://a.example.com", true, events.TypeInventoryLow)
	second := s.seed("https://b.example.com", true, events.TypeSiteCreated)

	s.Equal(int64(1), first.ID)
	s.Equal(int64(2), second.ID)
}

func (s *WebhookStoreSuite) TestFindByID() {
	created := s.seed("https://a.example.com", true, events.TypeInventoryLow)

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.URL, found.URL)

	_, err = s.store.FindByID(s.ctx, 99)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *WebhookStoreSuite) TestListActiveByEvent() {
	s.seed("https://low.example.com", true, events.TypeInventoryLow)
	s.seed("https://sites.example.com", true, events.TypeSiteCreated)
	s.seed("https://inactive.example.com", false, events.TypeInventoryLow)
	s.seed("https://both.example.com", true, events.TypeInventoryLow, events.TypeSiteCreated)

	hooks, err := s.store.ListActiveByEvent(s.ctx, events.TypeInventoryLow)
	s.Require().NoError(err)
	s.Require().Len(hooks, 2)
	s.Equal("https://low.example.com", hooks[0].URL)
	s.Equal("https://both.example.com", hooks[1].URL)
}

func (s *WebhookStoreSuite) TestUpdate() {
	created := s.seed("https://a.example.com", true, events.TypeInventoryLow)

	created.Active = false
	at := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	created.LastTriggeredAt = &at

	updated, err := s.store.Update(s.ctx, created)
	s.Require().NoError(err)
	s.False(updated.Active)
	s.Require().NotNil(updated.LastTriggeredAt)
	s.Equal(at, *updated.LastTriggeredAt)

	_, err = s.store.Update(s.ctx, &models.Webhook{ID: 99})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *WebhookStoreSuite) TestTouchLastTriggered() {
	created := s.seed("https://a.example.com", false, events.TypeInventoryLow)

	at := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.TouchLastTriggered(s.ctx, created.ID, at))

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.LastTriggeredAt)
	s.Equal(at, *found.LastTriggeredAt)
	s.False(found.Active, "touch must leave every other field alone")

	s.ErrorIs(s.store.TouchLastTriggered(s.ctx, 99, at), sentinel.ErrNotFound)
}

func (s *WebhookStoreSuite) TestDelete() {
	created := s.seed("https://a.example.com", true, events.TypeInventoryLow)

	s.Require().NoError(s.store.Delete(s.ctx, created.ID))
	_, err := s.store.FindByID(s.ctx, created.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(s.ctx, created.ID), sentinel.ErrNotFound)
}

func (s *WebhookStoreSuite) TestStoredCopiesAreIsolated() {
	created := s.seed("https://a.example.com", true, events.TypeInventoryLow)
	created.Events[0] = "mutated"

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(events.TypeInventoryLow, found.Events[0])
}
