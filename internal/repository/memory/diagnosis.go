package memory

import (
	"context"
	"time"

	"cropdoc/internal/models"

	"github.com/google/uuid"
)

type diagnosisRepository struct {
	store *Store
}

func (r *diagnosisRepository) Create(ctx context.Context, diagnosis *models.Diagnosis) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if diagnosis.ID == uuid.Nil {
		diagnosis.ID = uuid.New()
	}
	diagnosis.CreatedAt = time.Now()
	s.diagnoses = append(s.diagnoses, *diagnosis)
	return nil
}

func (r *diagnosisRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Diagnosis, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var diagnoses []models.Diagnosis
	// Appended in insertion order; walk backwards for newest first.
	for i := len(s.diagnoses) - 1; i >= 0; i-- {
		if s.diagnoses[i].UserID == userID {
			diagnoses = append(diagnoses, s.diagnoses[i])
		}
	}
	return diagnoses, nil
}
