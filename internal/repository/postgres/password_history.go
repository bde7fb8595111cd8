package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cropdoc/internal/models"
	"cropdoc/internal/repository"

	"github.com/google/uuid"
)

type passwordHistoryRepository struct {
	repository.BaseRepository
}

// NewPasswordHistoryRepository creates a new PostgreSQL password history repository
func NewPasswordHistoryRepository(db *sql.DB) repository.PasswordHistoryRepository {
	return &passwordHistoryRepository{BaseRepository: repository.NewBaseRepository(db)}
}

func (r *passwordHistoryRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.PasswordHistory, error) {
	query := `
		SELECT id, user_id, password_hash, created_at
		FROM password_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.DB().QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.PasswordHistory
	for rows.Next() {
		var entry models.PasswordHistory
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.PasswordHash, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *passwordHistoryRepository) DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := fmt.Sprintf(
		`DELETE FROM password_history WHERE created_at < NOW() - INTERVAL '%d seconds'`,
		int(olderThan.Seconds()),
	)

	result, err := r.DB().ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
