//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema matches what the stores expect. Applied once per container.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash BYTEA NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id           UUID PRIMARY KEY,
	email             TEXT NOT NULL,
	display_name      TEXT NOT NULL,
	avatar_url        TEXT,
	is_admin          BOOLEAN NOT NULL DEFAULT FALSE,
	status            TEXT NOT NULL,
	id_image_ref      TEXT,
	rejection_reason  TEXT,
	created_at        TIMESTAMPTZ NOT NULL,
	last_submitted_at TIMESTAMPTZ,
	verified_at       TIMESTAMPTZ,
	rejected_at       TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS verification_requests (
	id            UUID PRIMARY KEY,
	user_id       UUID NOT NULL,
	user_email    TEXT NOT NULL,
	user_name     TEXT NOT NULL,
	document_url  TEXT NOT NULL,
	file_name     TEXT NOT NULL,
	status        TEXT NOT NULL,
	admin_comment TEXT,
	submitted_at  TIMESTAMPTZ NOT NULL,
	processed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS verification_requests_pending_idx
	ON verification_requests (submitted_at) WHERE status = 'pending';

CREATE TABLE IF NOT EXISTS audit_outbox (
	seq          BIGSERIAL PRIMARY KEY,
	payload      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);
`

// PostgresContainer wraps a testcontainers Postgres instance with an open
// connection and the schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	URL       string
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("trueconnect_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DB: db, URL: url}
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if _, err := p.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
