package repository

import (
	"context"

	"cropdoc/internal/models"

	"github.com/google/uuid"
)

// ComplaintRepository defines the interface for help-ticket operations
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Complaint, error)
}

// DiagnosisRepository defines the interface for diagnosis-history operations
type DiagnosisRepository interface {
	Create(ctx context.Context, diagnosis *models.Diagnosis) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Diagnosis, error)
}
