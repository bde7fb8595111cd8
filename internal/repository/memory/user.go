package memory

import (
	"context"
	"time"

	"cropdoc/internal/models"
	"cropdoc/internal/repository"

	"github.com/google/uuid"
)

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[user.Email]; exists {
		return repository.ErrEmailExists
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	s.users[user.ID] = &clone
	s.usersByEmail[user.Email] = user.ID
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *s.users[id]
	return &clone, nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, lastLoginAt time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.LastLoginAt = &lastLoginAt
	user.UpdatedAt = time.Now()
	return nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now()
	return nil
}

func (r *userRepository) RotatePassword(ctx context.Context, id uuid.UUID, newHash string, historyDepth int) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}

	now := time.Now()
	if user.PasswordHash != "" {
		entries := append(s.history[id], models.PasswordHistory{
			ID:           uuid.New(),
			UserID:       id,
			PasswordHash: user.PasswordHash,
			CreatedAt:    now,
		})
		if historyDepth > 0 && len(entries) > historyDepth {
			entries = entries[len(entries)-historyDepth:]
		}
		s.history[id] = entries
	}

	user.PasswordHash = newHash
	user.PasswordChangedAt = &now
	user.UpdatedAt = now
	return nil
}
