//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pantrypulse/internal/queue/models"
	"pantrypulse/internal/queue/store"
	"pantrypulse/pkg/platform/sentinel"
	"pantrypulse/pkg/testutil/containers"
)

type PostgresTokenSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresTokenSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTokenSuite))
}

func (s *PostgresTokenSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresTokenSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "queue_tokens"))
}

func (s *PostgresTokenSuite) newToken(number string) *models.QueueToken {
	return &models.QueueToken{
		SiteID:               3,
		TokenNumber:          number,
		Status:               models.StatusWaiting,
		ContactName:          "Ada",
		ContactPhone:         "555-0100",
		EstimatedWaitMinutes: 15,
		CreatedAt:            time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresTokenSuite) TestInsertAndFind() {
	ctx := context.Background()

	saved, err := s.store.Save(ctx, s.newToken("PAN-20240601-0001"))
	s.Require().NoError(err)
	s.NotZero(saved.ID)

	found, err := s.store.FindByTokenNumber(ctx, "PAN-20240601-0001")
	s.Require().NoError(err)
	s.Equal(saved.ID, found.ID)
	s.Equal(models.StatusWaiting, found.Status)
	s.Equal("555-0100", found.ContactPhone)

	_, err = s.store.FindByTokenNumber(ctx, "PAN-20240601-9999")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresTokenSuite) TestDuplicateTokenNumberConflicts() {
	ctx := context.Background()

	_, err := s.store.Save(ctx, s.newToken("PAN-20240601-0001"))
	s.Require().NoError(err)

	_, err = s.store.Save(ctx, s.newToken("PAN-20240601-0001"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresTokenSuite) TestStatusUpdate() {
	ctx := context.Background()

	saved, err := s.store.Save(ctx, s.newToken("PAN-20240601-0001"))
	s.Require().NoError(err)

	calledAt := time.Now().UTC().Truncate(time.Microsecond)
	saved.Status = models.StatusCalled
	saved.CalledAt = &calledAt

	updated, err := s.store.Save(ctx, saved)
	s.Require().NoError(err)
	s.Equal(models.StatusCalled, updated.Status)

	found, err := s.store.FindByTokenNumber(ctx, "PAN-20240601-0001")
	s.Require().NoError(err)
	s.Equal(models.StatusCalled, found.Status)
	s.Require().NotNil(found.CalledAt)
	s.WithinDuration(calledAt, *found.CalledAt, time.Millisecond)

	missing := *saved
	missing.ID = 9999
	_, err = s.store.Save(ctx, &missing)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresTokenSuite) TestSiteScopedQueries() {
	ctx := context.Background()

	first, err := s.store.Save(ctx, s.newToken("PAN-20240601-0001"))
	s.Require().NoError(err)

	second := s.newToken("PAN-20240601-0002")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	_, err = s.store.Save(ctx, second)
	s.Require().NoError(err)

	served := s.newToken("PAN-20240601-0003")
	served.Status = models.StatusCompleted
	served.CreatedAt = first.CreatedAt.Add(2 * time.Minute)
	_, err = s.store.Save(ctx, served)
	s.Require().NoError(err)

	other := s.newToken("ELS-20240601-0001")
	other.SiteID = 4
	_, err = s.store.Save(ctx, other)
	s.Require().NoError(err)

	waiting, err := s.store.CountWaiting(ctx, 3)
	s.Require().NoError(err)
	s.Equal(2, waiting)

	oldestFirst, err := s.store.ListWaitingBySite(ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(oldestFirst, 2)
	s.Equal("PAN-20240601-0001", oldestFirst[0].TokenNumber)

	newestFirst, err := s.store.ListBySite(ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(newestFirst, 3)
	s.Equal("PAN-20240601-0003", newestFirst[0].TokenNumber)

	total, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(int64(4), total)
}
