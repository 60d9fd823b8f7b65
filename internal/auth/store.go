package auth

import (
	"context"

	id "trueconnect/pkg/domain"
)

// UserStore persists credential records. Implementations return
// sentinel.ErrNotFound for missing users and sentinel.ErrConflict when the
// email is already taken.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}
