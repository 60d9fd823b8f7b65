package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "trueconnect/pkg/domain"
	"trueconnect/pkg/platform/tx"
	"trueconnect/pkg/sentinel"

	"trueconnect/internal/verification/status"
)

// PostgresStore persists profiles in the profiles table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer returns the context transaction when the caller opened one, so
// profile writes can share a transaction with request writes.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, p *Profile) error {
	const query = `
		INSERT INTO profiles (
			user_id, email, display_name, avatar_url, is_admin, status,
			id_image_ref, rejection_reason, created_at, last_submitted_at,
			verified_at, rejected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(p.UserID), p.Email, p.DisplayName, nullString(p.AvatarURL),
		p.IsAdmin, string(p.Status), nullString(p.IDImageRef),
		nullString(p.RejectionReason), p.CreatedAt, p.LastSubmittedAt,
		p.VerifiedAt, p.RejectedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*Profile, error) {
	const query = `
		SELECT user_id, email, display_name, avatar_url, is_admin, status,
		       id_image_ref, rejection_reason, created_at, last_submitted_at,
		       verified_at, rejected_at
		FROM profiles
		WHERE user_id = $1`

	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(userID))

	var p Profile
	var rawID uuid.UUID
	var rawStatus string
	var avatarURL, imageRef, reason sql.NullString
	err := row.Scan(&rawID, &p.Email, &p.DisplayName, &avatarURL, &p.IsAdmin,
		&rawStatus, &imageRef, &reason, &p.CreatedAt, &p.LastSubmittedAt,
		&p.VerifiedAt, &p.RejectedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find profile by id: %w", err)
	}

	p.UserID = id.UserID(rawID)
	p.Status = status.Status(rawStatus)
	p.AvatarURL = avatarURL.String
	p.IDImageRef = imageRef.String
	p.RejectionReason = reason.String
	return &p, nil
}

func (s *PostgresStore) Save(ctx context.Context, p *Profile) error {
	const query = `
		UPDATE profiles
		SET email = $2, display_name = $3, avatar_url = $4, is_admin = $5,
		    status = $6, id_image_ref = $7, rejection_reason = $8,
		    last_submitted_at = $9, verified_at = $10, rejected_at = $11
		WHERE user_id = $1`

	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(p.UserID), p.Email, p.DisplayName, nullString(p.AvatarURL),
		p.IsAdmin, string(p.Status), nullString(p.IDImageRef),
		nullString(p.RejectionReason), p.LastSubmittedAt, p.VerifiedAt,
		p.RejectedAt,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
