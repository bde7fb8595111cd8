package memory

import (
	"context"
	"time"

	"cropdoc/internal/models"
	"cropdoc/internal/repository"
)

type pendingVerificationRepository struct {
	store *Store
}

func (r *pendingVerificationRepository) Upsert(ctx context.Context, pv *models.PendingVerification) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	pv.CreatedAt = time.Now()
	clone := *pv
	s.pending[pendingKey{email: pv.Email, purpose: pv.Purpose}] = &clone
	return nil
}

func (r *pendingVerificationRepository) Get(ctx context.Context, email, purpose string) (*models.PendingVerification, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	pv, ok := s.pending[pendingKey{email: email, purpose: purpose}]
	if !ok {
		return nil, repository.ErrPendingNotFound
	}
	clone := *pv
	return &clone, nil
}

func (r *pendingVerificationRepository) Delete(ctx context.Context, email, purpose string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, pendingKey{email: email, purpose: purpose})
	return nil
}

func (r *pendingVerificationRepository) IncrementAttempts(ctx context.Context, email, purpose string) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	pv, ok := s.pending[pendingKey{email: email, purpose: purpose}]
	if !ok {
		return 0, repository.ErrPendingNotFound
	}
	pv.Attempts++
	return pv.Attempts, nil
}

func (r *pendingVerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key, pv := range s.pending {
		if !now.Before(pv.ExpiresAt) {
			delete(s.pending, key)
			removed++
		}
	}
	return removed, nil
}
