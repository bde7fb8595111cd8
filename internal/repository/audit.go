package repository

import (
	"context"

	"cropdoc/internal/models"

	"github.com/google/uuid"
)

// AuditLogRepository records security events. Callers treat writes as
// best-effort: failures are logged, never propagated.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.AuditLog, error)
}
