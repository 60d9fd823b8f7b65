package profile

import (
	"context"

	id "trueconnect/pkg/domain"
)

// Store persists user profiles. Implementations return sentinel.ErrNotFound
// for missing profiles and sentinel.ErrConflict on duplicate creation.
type Store interface {
	Create(ctx context.Context, p *Profile) error
	FindByID(ctx context.Context, userID id.UserID) (*Profile, error)
	// Save overwrites the mutable fields of an existing profile.
	Save(ctx context.Context, p *Profile) error
}
