package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutexLockerAcquireAndRelease(t *testing.T) {
	l := NewMutexLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "user-1", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "user-1", time.Minute)
	assert.ErrorIs(t, err, ErrHeld)

	// A different key is independent.
	release2, err := l.Acquire(ctx, "user-2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, release2(ctx))

	require.NoError(t, release(ctx))
	release3, err := l.Acquire(ctx, "user-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, release3(ctx))
}

func TestMutexLockerLeaseExpiry(t *testing.T) {
	l := NewMutexLocker()
	ctx := context.Background()

	now := time.Now()
	l.now = func() time.Time { return now }

	staleRelease, err := l.Acquire(ctx, "user-1", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "user-1", time.Minute)
	assert.ErrorIs(t, err, ErrHeld)

	// Past the lease the entry counts as free.
	now = now.Add(2 * time.Minute)
	release, err := l.Acquire(ctx, "user-1", time.Minute)
	require.NoError(t, err)

	// The stale holder's release must not evict the new holder.
	require.NoError(t, staleRelease(ctx))
	_, err = l.Acquire(ctx, "user-1", time.Minute)
	assert.ErrorIs(t, err, ErrHeld)

	require.NoError(t, release(ctx))
}

func TestMutexLockerReleaseIsIdempotent(t *testing.T) {
	l := NewMutexLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "user-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))
}
