package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pantrypulse/internal/site/models"
	"pantrypulse/pkg/platform/sentinel"
)

// PostgresStore implements the site store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed site store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const siteColumns = `id, name, address, city, state, open, created_at`

func (s *PostgresStore) Save(ctx context.Context, site *models.Site) (*models.Site, error) {
	if site.ID == 0 {
		return s.insert(ctx, site)
	}
	return s.update(ctx, site)
}

func (s *PostgresStore) insert(ctx context.Context, site *models.Site) (*models.Site, error) {
	stored := *site
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sites (name, address, city, state, open, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		site.Name, nullString(site.Address), site.City, nullString(site.State),
		site.Open, site.CreatedAt,
	).Scan(&stored.ID)
	if err != nil {
		return nil, fmt.Errorf("insert site: %w", err)
	}
	return &stored, nil
}

func (s *PostgresStore) update(ctx context.Context, site *models.Site) (*models.Site, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sites
		SET name = $1, address = $2, city = $3, state = $4, open = $5
		WHERE id = $6`,
		site.Name, nullString(site.Address), site.City, nullString(site.State),
		site.Open, site.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update site: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update site: %w", err)
	}
	if affected == 0 {
		return nil, sentinel.ErrNotFound
	}
	stored := *site
	return &stored, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Site, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = $1`, id)

	var (
		site           models.Site
		address, state sql.NullString
	)
	err := row.Scan(&site.ID, &site.Name, &address, &site.City, &state, &site.Open, &site.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan site: %w", err)
	}
	site.Address = address.String
	site.State = state.String
	return &site, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
