package memory

import (
	"context"

	"cropdoc/internal/lockout"
)

type lockoutStore struct {
	store *Store
}

func (l *lockoutStore) Get(ctx context.Context, key, purpose string) (lockout.State, error) {
	s := l.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lockouts[lockoutKey{key: key, purpose: purpose}], nil
}

func (l *lockoutStore) Mutate(ctx context.Context, key, purpose string, fn func(lockout.State) lockout.State) (lockout.State, error) {
	s := l.store
	s.mu.Lock()
	defer s.mu.Unlock()

	k := lockoutKey{key: key, purpose: purpose}
	state := fn(s.lockouts[k])
	s.lockouts[k] = state
	return state, nil
}
