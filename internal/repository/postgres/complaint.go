package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cropdoc/internal/models"
	"cropdoc/internal/repository"

	"github.com/google/uuid"
)

type complaintRepository struct {
	repository.BaseRepository
}

// NewComplaintRepository creates a new PostgreSQL complaint repository
func NewComplaintRepository(db *sql.DB) repository.ComplaintRepository {
	return &complaintRepository{BaseRepository: repository.NewBaseRepository(db)}
}

func (r *complaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	query := `
		INSERT INTO complaints (id, user_id, subject, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING created_at, updated_at`

	now := time.Now()
	if complaint.ID == uuid.Nil {
		complaint.ID = uuid.New()
	}
	if complaint.Status == "" {
		complaint.Status = models.ComplaintStatusOpen
	}

	return r.DB().QueryRowContext(ctx, query,
		complaint.ID,
		complaint.UserID,
		complaint.Subject,
		complaint.Message,
		complaint.Status,
		now,
	).Scan(&complaint.CreatedAt, &complaint.UpdatedAt)
}

func (r *complaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	complaint := &models.Complaint{}
	query := `
		SELECT id, user_id, subject, message, status, created_at, updated_at
		FROM complaints
		WHERE id = $1`

	err := r.DB().QueryRowContext(ctx, query, id).Scan(
		&complaint.ID,
		&complaint.UserID,
		&complaint.Subject,
		&complaint.Message,
		&complaint.Status,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrComplaintNotFound
	}
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

func (r *complaintRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Complaint, error) {
	query := `
		SELECT id, user_id, subject, message, status, created_at, updated_at
		FROM complaints
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.DB().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var complaints []models.Complaint
	for rows.Next() {
		var c models.Complaint
		err := rows.Scan(&c.ID, &c.UserID, &c.Subject, &c.Message, &c.Status, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}
