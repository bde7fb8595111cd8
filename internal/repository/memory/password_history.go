package memory

import (
	"context"
	"time"

	"cropdoc/internal/models"

	"github.com/google/uuid"
)

type passwordHistoryRepository struct {
	store *Store
}

func (r *passwordHistoryRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.PasswordHistory, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.history[userID]
	var recent []models.PasswordHistory
	// Entries are stored oldest first; walk backwards for newest first.
	for i := len(entries) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, entries[i])
	}
	return recent, nil
}

func (r *passwordHistoryRepository) DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var removed int64
	for userID, entries := range s.history {
		kept := entries[:0]
		for _, entry := range entries {
			if entry.CreatedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, entry)
		}
		s.history[userID] = kept
	}
	return removed, nil
}
