//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"pantrypulse/internal/inventory/models"
	"pantrypulse/internal/inventory/store"
	"pantrypulse/pkg/platform/sentinel"
	"pantrypulse/pkg/testutil/containers"
)

type PostgresInventorySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresInventorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresInventorySuite))
}

func (s *PostgresInventorySuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresInventorySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "inventory_items"))
}

func (s *PostgresInventorySuite) seed(sku string, qty int) *models.Item {
	item, err := s.store.Save(context.Background(), &models.Item{
		SiteID: 1,
		SKU:    sku,
		Name:   "Canned Beans",
		Tags:   []string{"canned", "protein"},
		Qty:    qty,
		Unit:   "can",
	})
	s.Require().NoError(err)
	return item
}

func (s *PostgresInventorySuite) TestSaveAndFind() {
	created := s.seed("BEANS-001", 40)
	s.NotZero(created.ID)

	found, err := s.store.FindByID(context.Background(), created.ID)
	s.Require().NoError(err)
	s.Equal("BEANS-001", found.SKU)
	s.Equal([]string{"canned", "protein"}, found.Tags)
	s.Equal("can", found.Unit)

	_, err = s.store.FindByID(context.Background(), 9999)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresInventorySuite) TestSaveUpdatesExisting() {
	created := s.seed("BEANS-001", 40)

	created.Qty = 8
	updated, err := s.store.Save(context.Background(), created)
	s.Require().NoError(err)
	s.Equal(8, updated.Qty)

	found, err := s.store.FindByID(context.Background(), created.ID)
	s.Require().NoError(err)
	s.Equal(8, found.Qty)

	_, err = s.store.Save(context.Background(), &models.Item{ID: 9999, SKU: "GHOST"})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresInventorySuite) TestListBelowQty() {
	s.seed("BEANS-001", 40)
	low := s.seed("RICE-002", 4)

	items, err := s.store.ListBelowQty(context.Background(), 10)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(low.ID, items[0].ID)

	all, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Len(all, 2)
}
