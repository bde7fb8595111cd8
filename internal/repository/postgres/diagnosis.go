package postgres

import (
	"context"
	"database/sql"
	"time"

	"cropdoc/internal/models"
	"cropdoc/internal/repository"

	"github.com/google/uuid"
)

type diagnosisRepository struct {
	repository.BaseRepository
}

// NewDiagnosisRepository creates a new PostgreSQL diagnosis repository
func NewDiagnosisRepository(db *sql.DB) repository.DiagnosisRepository {
	return &diagnosisRepository{BaseRepository: repository.NewBaseRepository(db)}
}

func (r *diagnosisRepository) Create(ctx context.Context, diagnosis *models.Diagnosis) error {
	query := `
		INSERT INTO diagnoses (id, user_id, crop, image_url, result, advice, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	if diagnosis.ID == uuid.Nil {
		diagnosis.ID = uuid.New()
	}

	return r.DB().QueryRowContext(ctx, query,
		diagnosis.ID,
		diagnosis.UserID,
		diagnosis.Crop,
		diagnosis.ImageURL,
		diagnosis.Result,
		diagnosis.Advice,
		time.Now(),
	).Scan(&diagnosis.CreatedAt)
}

func (r *diagnosisRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Diagnosis, error) {
	query := `
		SELECT id, user_id, crop, image_url, result, advice, created_at
		FROM diagnoses
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.DB().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diagnoses []models.Diagnosis
	for rows.Next() {
		var d models.Diagnosis
		err := rows.Scan(&d.ID, &d.UserID, &d.Crop, &d.ImageURL, &d.Result, &d.Advice, &d.CreatedAt)
		if err != nil {
			return nil, err
		}
		diagnoses = append(diagnoses, d)
	}
	return diagnoses, rows.Err()
}
