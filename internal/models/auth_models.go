package models

import (
	"time"

	"github.com/google/uuid"
)

// Verification purposes for pending OTP records. A record is keyed by
// (email, purpose) so a registration and a password reset can coexist.
const (
	PurposeRegister      = "register"
	PurposePasswordReset = "password_reset"
)

// PendingVerification holds a staged profile and a hashed one-time code
// between "request OTP" and "verify OTP". Success deletes it; expiry
// invalidates it and deletion happens lazily on the next verify attempt.
type PendingVerification struct {
	Email        string    `json:"email"`
	Purpose      string    `json:"purpose"`
	Name         string    `json:"name"`
	Phone        *string   `json:"phone,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	OTPHash      string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	Attempts     int       `json:"attempts"`
	CreatedAt    time.Time `json:"created_at"`
}

// PasswordHistory represents one retired credential hash for a user.
// Entries are append-only; only the most recent N are retained.
type PasswordHistory struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
