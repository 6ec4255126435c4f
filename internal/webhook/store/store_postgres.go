package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"pantrypulse/internal/webhook/models"
	"pantrypulse/pkg/platform/sentinel"
)

// PostgresStore implements the webhook store on PostgreSQL. The events set is
// stored as a text array.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed webhook store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const webhookColumns = `id, url, active, events, description, created_at, last_triggered_at`

func (s *PostgresStore) Create(ctx context.Context, hook *models.Webhook) (*models.Webhook, error) {
	stored := *hook
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO webhooks (url, active, events, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		hook.URL, hook.Active, pq.Array(hook.Events), hook.Description, hook.CreatedAt,
	).Scan(&stored.ID)
	if err != nil {
		return nil, fmt.Errorf("insert webhook: %w", err)
	}
	return &stored, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Webhook, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+webhookColumns+` FROM webhooks WHERE id = $1`, id)
	return scanWebhook(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Webhook, error) {
	return s.list(ctx, `SELECT `+webhookColumns+` FROM webhooks ORDER BY id`)
}

func (s *PostgresStore) ListActiveByEvent(ctx context.Context, eventType string) ([]*models.Webhook, error) {
	return s.list(ctx, `
		SELECT `+webhookColumns+` FROM webhooks
		WHERE active AND $1 = ANY(events)
		ORDER BY id`, eventType)
}

func (s *PostgresStore) Update(ctx context.Context, hook *models.Webhook) (*models.Webhook, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE webhooks
		SET url = $1, active = $2, events = $3, description = $4, last_triggered_at = $5
		WHERE id = $6`,
		hook.URL, hook.Active, pq.Array(hook.Events), hook.Description, hook.LastTriggeredAt, hook.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update webhook: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update webhook: %w", err)
	}
	if affected == 0 {
		return nil, sentinel.ErrNotFound
	}
	stored := *hook
	return &stored, nil
}

// TouchLastTriggered updates only the last_triggered_at column, leaving any
// concurrent registry change to the remaining fields intact.
func (s *PostgresStore) TouchLastTriggered(ctx context.Context, id int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE webhooks SET last_triggered_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("touch webhook: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch webhook: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Webhook, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	var hooks []*models.Webhook
	for rows.Next() {
		hook, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, hook)
	}
	return hooks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWebhook(row rowScanner) (*models.Webhook, error) {
	var (
		hook        models.Webhook
		events      pq.StringArray
		description sql.NullString
	)
	err := row.Scan(
		&hook.ID, &hook.URL, &hook.Active, &events,
		&description, &hook.CreatedAt, &hook.LastTriggeredAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan webhook: %w", err)
	}
	hook.Events = events
	hook.Description = description.String
	return &hook, nil
}
