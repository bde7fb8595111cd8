package postgres

import (
	"context"
	"database/sql"
	"time"

	"cropdoc/internal/models"
	"cropdoc/internal/repository"

	"github.com/google/uuid"
)

type auditLogRepository struct {
	repository.BaseRepository
}

// NewAuditLogRepository creates a new PostgreSQL audit log repository
func NewAuditLogRepository(db *sql.DB) repository.AuditLogRepository {
	return &auditLogRepository{BaseRepository: repository.NewBaseRepository(db)}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, user_id, action, description, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	return r.DB().QueryRowContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.Description,
		entry.IPAddress,
		entry.UserAgent,
		time.Now(),
	).Scan(&entry.CreatedAt)
}

func (r *auditLogRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.AuditLog, error) {
	query := `
		SELECT id, user_id, action, description, ip_address, user_agent, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.DB().QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditLog
	for rows.Next() {
		var entry models.AuditLog
		err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Description, &entry.IPAddress, &entry.UserAgent, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
