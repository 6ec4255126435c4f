package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"pantrypulse/internal/inventory/models"
	"pantrypulse/pkg/platform/sentinel"
)

// PostgresStore implements the inventory store on PostgreSQL. Tags are stored
// as a text array.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed inventory store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const itemColumns = `id, site_id, sku, name, tags, qty, unit`

func (s *PostgresStore) Save(ctx context.Context, item *models.Item) (*models.Item, error) {
	stored := *item
	if item.ID == 0 {
		err := s.db.QueryRowContext(ctx, `
			INSERT INTO inventory_items (site_id, sku, name, tags, qty, unit)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			item.SiteID, item.SKU, item.Name, pq.Array(item.Tags), item.Qty, item.Unit,
		).Scan(&stored.ID)
		if err != nil {
			return nil, fmt.Errorf("insert inventory item: %w", err)
		}
		return &stored, nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET site_id = $1, sku = $2, name = $3, tags = $4, qty = $5, unit = $6
		WHERE id = $7`,
		item.SiteID, item.SKU, item.Name, pq.Array(item.Tags), item.Qty, item.Unit, item.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update inventory item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update inventory item: %w", err)
	}
	if affected == 0 {
		return nil, sentinel.ErrNotFound
	}
	return &stored, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id)
	return scanItem(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Item, error) {
	return s.list(ctx, `SELECT `+itemColumns+` FROM inventory_items ORDER BY id`)
}

func (s *PostgresStore) ListBelowQty(ctx context.Context, threshold int) ([]*models.Item, error) {
	return s.list(ctx, `
		SELECT `+itemColumns+` FROM inventory_items
		WHERE qty < $1
		ORDER BY id`, threshold)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item models.Item
		tags pq.StringArray
		unit sql.NullString
	)
	err := row.Scan(&item.ID, &item.SiteID, &item.SKU, &item.Name, &tags, &item.Qty, &unit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan inventory item: %w", err)
	}
	item.Tags = tags
	item.Unit = unit.String
	return &item, nil
}
