package profile

import (
	"time"

	id "trueconnect/pkg/domain"

	"trueconnect/internal/verification/status"
)

// Profile is the per-user record the verification lifecycle runs over.
// Status moves only through the status package's transition functions;
// IsAdmin is assigned out of band and never self-assignable.
type Profile struct {
	UserID      id.UserID
	Email       string
	DisplayName string
	AvatarURL   string

	IsAdmin bool
	Status  status.Status

	// IDImageRef points at the most recently submitted document.
	IDImageRef      string
	RejectionReason string

	CreatedAt       time.Time
	LastSubmittedAt *time.Time
	VerifiedAt      *time.Time
	RejectedAt      *time.Time
}

// View is the wire representation returned to clients.
type View struct {
	UserID          string     `json:"user_id"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"display_name"`
	AvatarURL       string     `json:"avatar_url,omitempty"`
	IsAdmin         bool       `json:"is_admin"`
	Status          string     `json:"verification_status"`
	IDImageRef      string     `json:"id_image_url,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	LastSubmittedAt *time.Time `json:"last_submitted_at,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
}

// ToView converts a profile to its wire representation.
func (p *Profile) ToView() View {
	return View{
		UserID:          p.UserID.String(),
		Email:           p.Email,
		DisplayName:     p.DisplayName,
		AvatarURL:       p.AvatarURL,
		IsAdmin:         p.IsAdmin,
		Status:          string(p.Status),
		IDImageRef:      p.IDImageRef,
		RejectionReason: p.RejectionReason,
		CreatedAt:       p.CreatedAt,
		LastSubmittedAt: p.LastSubmittedAt,
		VerifiedAt:      p.VerifiedAt,
		RejectedAt:      p.RejectedAt,
	}
}
