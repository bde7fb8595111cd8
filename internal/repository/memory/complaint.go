package memory

import (
	"context"
	"sort"
	"time"

	"cropdoc/internal/models"
	"cropdoc/internal/repository"

	"github.com/google/uuid"
)

type complaintRepository struct {
	store *Store
}

func (r *complaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if complaint.ID == uuid.Nil {
		complaint.ID = uuid.New()
	}
	if complaint.Status == "" {
		complaint.Status = models.ComplaintStatusOpen
	}
	now := time.Now()
	complaint.CreatedAt = now
	complaint.UpdatedAt = now

	clone := *complaint
	s.complaints[complaint.ID] = &clone
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	complaint, ok := s.complaints[id]
	if !ok {
		return nil, repository.ErrComplaintNotFound
	}
	clone := *complaint
	return &clone, nil
}

func (r *complaintRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Complaint, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var complaints []models.Complaint
	for _, complaint := range s.complaints {
		if complaint.UserID == userID {
			complaints = append(complaints, *complaint)
		}
	}
	sort.Slice(complaints, func(i, j int) bool {
		return complaints[i].CreatedAt.After(complaints[j].CreatedAt)
	})
	return complaints, nil
}
