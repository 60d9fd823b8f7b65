package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "trueconnect/pkg/domain"
	"trueconnect/pkg/platform/tx"
	"trueconnect/pkg/sentinel"

	"trueconnect/internal/verification/status"
)

// PostgresRequestStore persists requests in the verification_requests table.
type PostgresRequestStore struct {
	db *sql.DB
}

func NewPostgresRequestStore(db *sql.DB) *PostgresRequestStore {
	return &PostgresRequestStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresRequestStore) execer(ctx context.Context) dbExecutor {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

const requestColumns = `
	id, user_id, user_email, user_name, document_url, file_name,
	status, admin_comment, submitted_at, processed_at`

func (s *PostgresRequestStore) Create(ctx context.Context, r *Request) error {
	const query = `
		INSERT INTO verification_requests (
			id, user_id, user_email, user_name, document_url, file_name,
			status, admin_comment, submitted_at, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID), uuid.UUID(r.UserID), r.UserEmail, r.UserName,
		r.DocumentURL, r.FileName, string(r.Status),
		nullString(r.AdminComment), r.SubmittedAt, r.ProcessedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create verification request: %w", err)
	}
	return nil
}

func (s *PostgresRequestStore) FindByID(ctx context.Context, requestID id.RequestID) (*Request, error) {
	query := `SELECT` + requestColumns + `
		FROM verification_requests WHERE id = $1`

	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(requestID))
	r, err := scanRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification request: %w", err)
	}
	return r, nil
}

func (s *PostgresRequestStore) ListPending(ctx context.Context) ([]*Request, error) {
	query := `SELECT` + requestColumns + `
		FROM verification_requests
		WHERE status = $1
		ORDER BY submitted_at`

	rows, err := s.execer(ctx).QueryContext(ctx, query, string(status.RequestPending))
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var pending []*Request
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan verification request: %w", err)
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending requests: %w", err)
	}
	return pending, nil
}

// MarkProcessed applies the outcome only while the request is still pending.
// Zero rows affected on an existing request means another administrator got
// there first.
func (s *PostgresRequestStore) MarkProcessed(ctx context.Context, requestID id.RequestID, outcome status.RequestStatus, comment string, at time.Time) error {
	const query = `
		UPDATE verification_requests
		SET status = $2, admin_comment = $3, processed_at = $4
		WHERE id = $1 AND status = $5`

	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(requestID), string(outcome), nullString(comment), at,
		string(status.RequestPending),
	)
	if err != nil {
		return fmt.Errorf("mark request processed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark request processed: %w", err)
	}
	if affected == 0 {
		if _, findErr := s.FindByID(ctx, requestID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func scanRequest(scan func(dest ...any) error) (*Request, error) {
	var r Request
	var rawID, rawUserID uuid.UUID
	var rawStatus string
	var comment sql.NullString
	err := scan(&rawID, &rawUserID, &r.UserEmail, &r.UserName, &r.DocumentURL,
		&r.FileName, &rawStatus, &comment, &r.SubmittedAt, &r.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ID = id.RequestID(rawID)
	r.UserID = id.UserID(rawUserID)
	r.Status = status.RequestStatus(rawStatus)
	r.AdminComment = comment.String
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
