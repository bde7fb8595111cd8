package lockout_test

import (
	"context"
	"testing"
	"time"

	"cropdoc/internal/lockout"
	"cropdoc/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracker(t *testing.T, maxFailures int, lockDuration time.Duration) (*lockout.Tracker, lockout.Store) {
	t.Helper()
	store := memory.NewStore().Lockouts()
	return lockout.NewTracker(store, maxFailures, lockDuration), store
}

func TestTrackerLocksAfterMaxFailures(t *testing.T) {
	tracker, _ := newTracker(t, 5, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		status, err := tracker.RecordFailure(ctx, "user@example.com", lockout.PurposeLogin)
		require.NoError(t, err)
		assert.False(t, status.Locked, "failure %d should not lock", i+1)
	}

	status, err := tracker.RecordFailure(ctx, "user@example.com", lockout.PurposeLogin)
	require.NoError(t, err)
	assert.True(t, status.Locked)
	assert.InDelta(t, (15 * time.Minute).Seconds(), status.RetryAfter.Seconds(), 2)

	checked, err := tracker.Check(ctx, "user@example.com", lockout.PurposeLogin)
	require.NoError(t, err)
	assert.True(t, checked.Locked)
	assert.Greater(t, checked.RetryAfter, time.Duration(0))
}

func TestTrackerSuccessResetsCounter(t *testing.T) {
	tracker, _ := newTracker(t, 5, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := tracker.RecordFailure(ctx, "user@example.com", lockout.PurposeLogin)
		require.NoError(t, err)
	}
	require.NoError(t, tracker.RecordSuccess(ctx, "user@example.com", lockout.PurposeLogin))

	// The counter starts over: four more failures still do not lock.
	for i := 0; i < 4; i++ {
		status, err := tracker.RecordFailure(ctx, "user@example.com", lockout.PurposeLogin)
		require.NoError(t, err)
		assert.False(t, status.Locked)
	}
}

func TestTrackerFailureWhileLockedIsNoOp(t *testing.T) {
	tracker, store := newTracker(t, 2, 15*time.Minute)
	ctx := context.Background()

	_, err := tracker.RecordFailure(ctx, "user@example.com", lockout.PurposeLogin)
	require.NoError(t, err)
	status, err := tracker.RecordFailure(ctx, "user@example.com", lockout.PurposeLogin)
	require.NoError(t, err)
	require.True(t, status.Locked)

	before, err := store.Get(ctx, "user@example.com", lockout.PurposeLogin)
	require.NoError(t, err)

	// Further failures during the lock neither extend it nor count.
	status, err = tracker.RecordFailure(ctx, "user@example.com", lockout.PurposeLogin)
	require.NoError(t, err)
	assert.True(t, status.Locked)

	after, err := store.Get(ctx, "user@example.com", lockout.PurposeLogin)
	require.NoError(t, err)
	assert.Equal(t, before.FailedAttempts, after.FailedAttempts)
	assert.Equal(t, before.LockUntil, after.LockUntil)
}

func TestTrackerExpiredLockReadsOpen(t *testing.T) {
	tracker, store := newTracker(t, 2, 50*time.Millisecond)
	ctx := context.Background()

	_, err := tracker.RecordFailure(ctx, "user@example.com", lockout.PurposeLogin)
	require.NoError(t, err)
	status, err := tracker.RecordFailure(ctx, "user@example.com", lockout.PurposeLogin)
	require.NoError(t, err)
	require.True(t, status.Locked)

	time.Sleep(60 * time.Millisecond)

	checked, err := tracker.Check(ctx, "user@example.com", lockout.PurposeLogin)
	require.NoError(t, err)
	assert.False(t, checked.Locked)

	// The stale LockUntil stays in the store until the next write.
	state, err := store.Get(ctx, "user@example.com", lockout.PurposeLogin)
	require.NoError(t, err)
	assert.False(t, state.LockUntil.IsZero())
}

func TestTrackerPurposesAreIndependent(t *testing.T) {
	tracker, _ := newTracker(t, 2, 15*time.Minute)
	ctx := context.Background()

	_, err := tracker.RecordFailure(ctx, "user@example.com", lockout.PurposeLogin)
	require.NoError(t, err)
	status, err := tracker.RecordFailure(ctx, "user@example.com", lockout.PurposeLogin)
	require.NoError(t, err)
	require.True(t, status.Locked)

	checked, err := tracker.Check(ctx, "user@example.com", lockout.PurposePasswordChange)
	require.NoError(t, err)
	assert.False(t, checked.Locked)
}
