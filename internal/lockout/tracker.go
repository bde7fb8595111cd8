// Package lockout tracks consecutive authentication failures per identity
// and purpose, and derives a temporary lock window once a threshold is hit.
// It penalizes failures only; request-volume throttling lives in ratelimit.
package lockout

import (
	"context"
	"time"
)

// Purposes tracked independently of each other. A login lockout never
// blocks a password change and vice versa.
const (
	PurposeLogin          = "login"
	PurposePasswordChange = "password_change"
	PurposePasswordReset  = "password_reset"
)

// State is the durable per-(key, purpose) record. A LockUntil in the past
// is equivalent to no lock; it is overwritten on the next failure or
// success rather than cleared eagerly.
type State struct {
	FailedAttempts int
	LockUntil      time.Time
	LastAttemptAt  time.Time
}

// Status is the caller-facing view of a lockout check
type Status struct {
	Locked     bool
	RetryAfter time.Duration
}

// Store persists lockout state. Mutate must serialize read-modify-write
// per (key, purpose) so concurrent failures for the same identity never
// undercount: the postgres implementation locks the row in a transaction,
// the in-memory implementation holds a mutex.
type Store interface {
	Get(ctx context.Context, key, purpose string) (State, error)
	Mutate(ctx context.Context, key, purpose string, fn func(State) State) (State, error)
}

// Tracker implements the lockout state machine over an injected store
type Tracker struct {
	store        Store
	maxFailures  int
	lockDuration time.Duration
}

// NewTracker creates a tracker that locks after maxFailures consecutive
// failures for lockDuration
func NewTracker(store Store, maxFailures int, lockDuration time.Duration) *Tracker {
	return &Tracker{
		store:        store,
		maxFailures:  maxFailures,
		lockDuration: lockDuration,
	}
}

// Check reports whether the key is currently locked for the purpose.
// It never writes; an expired lock simply reads as open.
func (t *Tracker) Check(ctx context.Context, key, purpose string) (Status, error) {
	state, err := t.store.Get(ctx, key, purpose)
	if err != nil {
		return Status{}, err
	}
	return t.status(state, time.Now()), nil
}

// RecordFailure increments the failure counter. Reaching the threshold
// sets the lock and resets the counter to zero: the lock itself is the
// penalty and the next cycle starts fresh once it clears. If the key is
// already locked the call is a no-op that reports the current status,
// so a locked-out caller can neither extend the lock nor double-count.
func (t *Tracker) RecordFailure(ctx context.Context, key, purpose string) (Status, error) {
	now := time.Now()
	state, err := t.store.Mutate(ctx, key, purpose, func(s State) State {
		if s.LockUntil.After(now) {
			return s
		}
		s.FailedAttempts++
		s.LastAttemptAt = now
		if s.FailedAttempts >= t.maxFailures {
			s.FailedAttempts = 0
			s.LockUntil = now.Add(t.lockDuration)
		}
		return s
	})
	if err != nil {
		return Status{}, err
	}
	return t.status(state, now), nil
}

// RecordSuccess zeroes the failure counter and clears any lock
func (t *Tracker) RecordSuccess(ctx context.Context, key, purpose string) error {
	_, err := t.store.Mutate(ctx, key, purpose, func(s State) State {
		s.FailedAttempts = 0
		s.LockUntil = time.Time{}
		return s
	})
	return err
}

func (t *Tracker) status(s State, now time.Time) Status {
	if s.LockUntil.After(now) {
		return Status{Locked: true, RetryAfter: s.LockUntil.Sub(now)}
	}
	return Status{}
}
