package domain

import "time"

// DefaultAvatar is the object key of the avatar assigned at sign-up. It is
// never deleted when a user uploads a replacement.
const DefaultAvatar = "default.png"

type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string // argon2id PHC or bcrypt
	Role         Role
	IsVerified   bool
	AvatarKey    string // object key in the file store

	// VerificationTokenHash is the fingerprint of the outstanding email
	// verification token, nil once consumed.
	VerificationTokenHash *string

	// Reset is the outstanding password reset, nil when none.
	Reset *ResetToken

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResetToken is a single-use password reset grant. Only the fingerprint of
// the token is stored.
type ResetToken struct {
	TokenHash string
	ExpiresAt time.Time
}

// Expired reports whether the reset grant is unusable at now.
func (r *ResetToken) Expired(now time.Time) bool {
	return r == nil || !now.Before(r.ExpiresAt)
}

// UserRef is the display subset of a user embedded in owned resources.
type UserRef struct {
	ID        string
	FirstName string
	LastName  string
}
