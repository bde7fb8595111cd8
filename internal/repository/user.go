package repository

import (
	"context"
	"time"

	"cropdoc/internal/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user-related database operations.
// Emails are stored in canonical form (trimmed, lowercased); callers
// normalize before lookup.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, lastLoginAt time.Time) error

	// UpdatePasswordHash replaces the stored hash without touching history.
	// Used for the transparent legacy-hash upgrade on successful verify.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error

	// RotatePassword atomically appends the current hash to password history,
	// stores the new hash, and prunes history beyond historyDepth entries.
	RotatePassword(ctx context.Context, id uuid.UUID, newHash string, historyDepth int) error
}
