package memory

import (
	"context"
	"time"

	"cropdoc/internal/models"

	"github.com/google/uuid"
)

type auditLogRepository struct {
	store *Store
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	s.audits = append(s.audits, *entry)
	return nil
}

func (r *auditLogRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.AuditLog, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []models.AuditLog
	for i := len(s.audits) - 1; i >= 0 && len(entries) < limit; i-- {
		entry := s.audits[i]
		if entry.UserID != nil && *entry.UserID == userID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
