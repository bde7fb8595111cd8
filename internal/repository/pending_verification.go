package repository

import (
	"context"
	"time"

	"cropdoc/internal/models"
)

// PendingVerificationRepository stores staged registrations and password
// resets keyed by (email, purpose). Upsert replaces any prior record for
// the same key so only the most recently issued code is ever valid.
type PendingVerificationRepository interface {
	Upsert(ctx context.Context, pv *models.PendingVerification) error
	Get(ctx context.Context, email, purpose string) (*models.PendingVerification, error)
	Delete(ctx context.Context, email, purpose string) error

	// IncrementAttempts bumps the attempt counter and returns the new value.
	IncrementAttempts(ctx context.Context, email, purpose string) (int, error)

	// DeleteExpired removes records whose expiry has passed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
