package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"pantrypulse/internal/queue/models"
	"pantrypulse/pkg/platform/sentinel"
)

// PostgresStore implements the queue token store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed token store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const tokenColumns = `id, site_id, token_number, status, contact_name, contact_phone, estimated_wait_minutes, created_at, called_at, completed_at`

func (s *PostgresStore) Save(ctx context.Context, token *models.QueueToken) (*models.QueueToken, error) {
	if token.ID == 0 {
		return s.insert(ctx, token)
	}
	return s.update(ctx, token)
}

func (s *PostgresStore) insert(ctx context.Context, token *models.QueueToken) (*models.QueueToken, error) {
	stored := *token
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO queue_tokens (site_id, token_number, status, contact_name, contact_phone, estimated_wait_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		token.SiteID, token.TokenNumber, token.Status, token.ContactName,
		nullString(token.ContactPhone), token.EstimatedWaitMinutes, token.CreatedAt,
	).Scan(&stored.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("insert queue token: %w", err)
	}
	return &stored, nil
}

func (s *PostgresStore) update(ctx context.Context, token *models.QueueToken) (*models.QueueToken, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE queue_tokens
		SET status = $1, called_at = $2, completed_at = $3, estimated_wait_minutes = $4
		WHERE id = $5`,
		token.Status, token.CalledAt, token.CompletedAt, token.EstimatedWaitMinutes, token.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update queue token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update queue token: %w", err)
	}
	if affected == 0 {
		return nil, sentinel.ErrNotFound
	}
	stored := *token
	return &stored, nil
}

func (s *PostgresStore) FindByTokenNumber(ctx context.Context, tokenNumber string) (*models.QueueToken, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM queue_tokens WHERE token_number = $1`, tokenNumber)
	return scanToken(row)
}

func (s *PostgresStore) CountWaiting(ctx context.Context, siteID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_tokens WHERE site_id = $1 AND status = $2`,
		siteID, models.StatusWaiting,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count waiting tokens: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListWaitingBySite(ctx context.Context, siteID int64) ([]*models.QueueToken, error) {
	return s.list(ctx, `
		SELECT `+tokenColumns+` FROM queue_tokens
		WHERE site_id = $1 AND status = $2
		ORDER BY created_at ASC`, siteID, models.StatusWaiting)
}

func (s *PostgresStore) ListBySite(ctx context.Context, siteID int64) ([]*models.QueueToken, error) {
	return s.list(ctx, `
		SELECT `+tokenColumns+` FROM queue_tokens
		WHERE site_id = $1
		ORDER BY created_at DESC`, siteID)
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue_tokens`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count queue tokens: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.QueueToken, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.QueueToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*models.QueueToken, error) {
	var (
		token models.QueueToken
		phone sql.NullString
	)
	err := row.Scan(
		&token.ID, &token.SiteID, &token.TokenNumber, &token.Status,
		&token.ContactName, &phone, &token.EstimatedWaitMinutes,
		&token.CreatedAt, &token.CalledAt, &token.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan queue token: %w", err)
	}
	token.ContactPhone = phone.String
	return &token, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
