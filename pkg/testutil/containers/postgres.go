//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS sites (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	address    TEXT,
	city       TEXT NOT NULL,
	state      TEXT,
	open       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS queue_tokens (
	id                     BIGSERIAL PRIMARY KEY,
	site_id                BIGINT NOT NULL,
	token_number           TEXT NOT NULL UNIQUE,
	status                 TEXT NOT NULL,
	contact_name           TEXT NOT NULL,
	contact_phone          TEXT,
	estimated_wait_minutes INT NOT NULL DEFAULT 0,
	created_at             TIMESTAMPTZ NOT NULL,
	called_at              TIMESTAMPTZ,
	completed_at           TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS inventory_items (
	id      BIGSERIAL PRIMARY KEY,
	site_id BIGINT NOT NULL,
	sku     TEXT NOT NULL,
	name    TEXT NOT NULL,
	tags    TEXT[] NOT NULL DEFAULT '{}',
	qty     INT NOT NULL DEFAULT 0,
	unit    TEXT
);

CREATE TABLE IF NOT EXISTS webhooks (
	id                BIGSERIAL PRIMARY KEY,
	url               TEXT NOT NULL,
	active            BOOLEAN NOT NULL DEFAULT TRUE,
	events            TEXT[] NOT NULL,
	description       TEXT,
	created_at        TIMESTAMPTZ NOT NULL,
	last_triggered_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS audit_log (
	id        BIGSERIAL PRIMARY KEY,
	username  TEXT NOT NULL,
	action    TEXT NOT NULL,
	entity    TEXT NOT NULL,
	entity_id BIGINT NOT NULL,
	details   TEXT,
	timestamp TIMESTAMPTZ NOT NULL
);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// application schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	URL       string
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
// The container is terminated when the test finishes.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("pantrypulse"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DB: db, URL: url}
}

// TruncateTables clears the given tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx,
		fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", ")))
	return err
}
