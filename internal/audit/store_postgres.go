package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore implements the audit store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `id, username, action, entity, entity_id, details, timestamp`

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (username, action, entity, entity_id, details, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.Username, entry.Action, entry.Entity, entry.EntityID,
		nullString(entry.Details), entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Entry, error) {
	return s.list(ctx, `SELECT `+entryColumns+` FROM audit_log ORDER BY timestamp DESC`)
}

func (s *PostgresStore) ListByUsername(ctx context.Context, username string) ([]Entry, error) {
	return s.list(ctx, `
		SELECT `+entryColumns+` FROM audit_log
		WHERE username = $1
		ORDER BY timestamp DESC`, username)
}

func (s *PostgresStore) ListByEntity(ctx context.Context, entity string) ([]Entry, error) {
	return s.list(ctx, `
		SELECT `+entryColumns+` FROM audit_log
		WHERE entity = $1
		ORDER BY timestamp DESC`, entity)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry   Entry
			details sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.Username, &entry.Action, &entry.Entity,
			&entry.EntityID, &details, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Details = details.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
