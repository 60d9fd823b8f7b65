package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	txcontext "trueconnect/pkg/platform/tx"
)

// PostgresStore implements Store using a transactional outbox table. Append
// joins the caller's transaction when one is in the context, so the audit row
// commits atomically with the change it describes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if t, ok := txcontext.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) Record(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	const query = `
		INSERT INTO audit_outbox (payload, created_at)
		VALUES ($1, $2)`
	_, err = s.execer(ctx).ExecContext(ctx, query, payload, event.Timestamp)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) NextBatch(ctx context.Context, limit int) ([]OutboxEntry, error) {
	const query = `
		SELECT seq, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch audit batch: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.Seq, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit batch: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) MarkPublished(ctx context.Context, seqs []int64) error {
	if len(seqs) == 0 {
		return nil
	}
	const query = `
		UPDATE audit_outbox
		SET published_at = NOW()
		WHERE seq = ANY($1)`
	if _, err := s.db.ExecContext(ctx, query, pq.Array(seqs)); err != nil {
		return fmt.Errorf("mark audit entries published: %w", err)
	}
	return nil
}
