package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cropdoc/internal/lockout"
	"cropdoc/internal/repository"
)

type lockoutStore struct {
	repository.BaseRepository
}

// NewLockoutStore creates a PostgreSQL-backed lockout store. Mutate
// serializes read-modify-write per (key, purpose) by locking the row
// inside a transaction, so concurrent failures for the same identity
// never undercount.
func NewLockoutStore(db *sql.DB) lockout.Store {
	return &lockoutStore{BaseRepository: repository.NewBaseRepository(db)}
}

func (s *lockoutStore) Get(ctx context.Context, key, purpose string) (lockout.State, error) {
	var state lockout.State
	var lockUntil, lastAttempt sql.NullTime

	err := s.DB().QueryRowContext(ctx, `
		SELECT failed_attempts, lock_until, last_attempt_at
		FROM lockout_states
		WHERE key = $1 AND purpose = $2`,
		key, purpose,
	).Scan(&state.FailedAttempts, &lockUntil, &lastAttempt)

	if errors.Is(err, sql.ErrNoRows) {
		return lockout.State{}, nil
	}
	if err != nil {
		return lockout.State{}, err
	}

	if lockUntil.Valid {
		state.LockUntil = lockUntil.Time
	}
	if lastAttempt.Valid {
		state.LastAttemptAt = lastAttempt.Time
	}
	return state, nil
}

func (s *lockoutStore) Mutate(ctx context.Context, key, purpose string, fn func(lockout.State) lockout.State) (lockout.State, error) {
	tx, err := s.DB().BeginTx(ctx, nil)
	if err != nil {
		return lockout.State{}, err
	}
	defer tx.Rollback()

	// Ensure the row exists, then lock it for the read-modify-write.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO lockout_states (key, purpose, failed_attempts)
		VALUES ($1, $2, 0)
		ON CONFLICT (key, purpose) DO NOTHING`,
		key, purpose,
	)
	if err != nil {
		return lockout.State{}, err
	}

	var state lockout.State
	var lockUntil, lastAttempt sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT failed_attempts, lock_until, last_attempt_at
		FROM lockout_states
		WHERE key = $1 AND purpose = $2
		FOR UPDATE`,
		key, purpose,
	).Scan(&state.FailedAttempts, &lockUntil, &lastAttempt)
	if err != nil {
		return lockout.State{}, err
	}
	if lockUntil.Valid {
		state.LockUntil = lockUntil.Time
	}
	if lastAttempt.Valid {
		state.LastAttemptAt = lastAttempt.Time
	}

	state = fn(state)

	_, err = tx.ExecContext(ctx, `
		UPDATE lockout_states
		SET failed_attempts = $3, lock_until = $4, last_attempt_at = $5
		WHERE key = $1 AND purpose = $2`,
		key, purpose,
		state.FailedAttempts,
		nullableTime(state.LockUntil),
		nullableTime(state.LastAttemptAt),
	)
	if err != nil {
		return lockout.State{}, err
	}

	if err := tx.Commit(); err != nil {
		return lockout.State{}, err
	}
	return state, nil
}

func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
