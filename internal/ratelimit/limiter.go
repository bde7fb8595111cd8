// Package ratelimit implements a fixed-window request counter used to
// bound abuse-prone endpoints. It throttles request volume regardless of
// outcome; failure-specific penalties live in the lockout package.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result reports the outcome of a single hit
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// CounterStore maintains per-key fixed-window counters. Incr resets the
// counter when the current window has lapsed, then increments it, and
// returns the post-increment count together with the window start.
type CounterStore interface {
	Incr(ctx context.Context, key string, now time.Time, window time.Duration) (count int, windowStart time.Time, err error)
}

// Limiter enforces a per-key maximum within a fixed window. Bursts at
// window boundaries can briefly reach twice the configured maximum; this
// imprecision is accepted in exchange for a single counter per key.
type Limiter struct {
	store  CounterStore
	max    int
	window time.Duration
}

// NewLimiter creates a limiter allowing max hits per window per key
func NewLimiter(store CounterStore, max int, window time.Duration) *Limiter {
	return &Limiter{store: store, max: max, window: window}
}

// Hit records one request for key and reports whether it is allowed
func (l *Limiter) Hit(ctx context.Context, key string) (Result, error) {
	now := time.Now()
	count, windowStart, err := l.store.Incr(ctx, key, now, l.window)
	if err != nil {
		return Result{}, err
	}
	if count > l.max {
		return Result{Allowed: false, RetryAfter: l.window - now.Sub(windowStart)}, nil
	}
	return Result{Allowed: true}, nil
}

type windowEntry struct {
	count       int
	windowStart time.Time
}

// MemoryStore is a process-local CounterStore. Each replica enforces its
// own independent limit; a deployment with N replicas admits up to N times
// the configured budget unless this is swapped for a shared counter.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

// NewMemoryStore creates an empty in-process counter store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*windowEntry)}
}

// Incr implements CounterStore
func (s *MemoryStore) Incr(_ context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || now.Sub(e.windowStart) > window {
		e = &windowEntry{windowStart: now}
		s.entries[key] = e
	}
	e.count++
	return e.count, e.windowStart, nil
}

// Prune drops entries whose window lapsed before cutoff
func (s *MemoryStore) Prune(cutoff time.Time, window time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if cutoff.Sub(e.windowStart) > window {
			delete(s.entries, key)
		}
	}
}
