package domain

import "time"

// SessionRecord is a stored session. Only the SHA-256 of the token is kept.
type SessionRecord struct {
	TokenHash string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// OTPCode is the pending one-time passcode for an email address. At most
// one exists per address; requesting a new code replaces it.
type OTPCode struct {
	Email     string
	CodeHash  string
	Attempts  int
	CreatedAt time.Time
	ExpiresAt time.Time
}

type PasswordReset struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
}
