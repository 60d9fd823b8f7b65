// Package domain holds the shared identifier types. Typed UUIDs keep a user
// ID from being passed where a request ID belongs; the compiler enforces it.
package domain

import (
	"github.com/google/uuid"

	dErrors "trueconnect/pkg/domainerrors"
)

// UserID identifies an authenticated account and its profile record.
type UserID uuid.UUID

// RequestID identifies a single verification request record.
type RequestID uuid.UUID

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) String() string { return uuid.UUID(id).String() }
func (id RequestID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewUserID returns a freshly generated user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewRequestID returns a freshly generated request ID.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

// ParseUserID parses and validates a user ID at a trust boundary.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseUserID(raw string) (UserID, error) {
	u, err := parse(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseRequestID parses and validates a request ID at a trust boundary.
func ParseRequestID(raw string) (RequestID, error) {
	u, err := parse(raw)
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(u), nil
}

func parse(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil uuid")
	}
	return u, nil
}
