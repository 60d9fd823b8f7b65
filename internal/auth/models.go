package auth

import (
	"time"

	id "trueconnect/pkg/domain"
)

// User is the credential record behind an account. Profile data
// (display name, verification status) lives in the profile package; this
// stays narrow so password hashes never travel with profile reads.
type User struct {
	ID           id.UserID
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Credentials is the sign-in/sign-up request payload after decoding.
type Credentials struct {
	Email       string
	Password    string
	DisplayName string
}
