package repository

import (
	"context"
	"time"

	"cropdoc/internal/models"

	"github.com/google/uuid"
)

// PasswordHistoryRepository defines the interface for password history
// operations. Rows are written only by UserRepository.RotatePassword;
// this interface exposes reads and retention cleanup.
type PasswordHistoryRepository interface {
	// ListRecent returns up to limit entries for the user, newest first.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.PasswordHistory, error)
	// DeleteOlderThan removes entries older than the retention window.
	DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error)
}
