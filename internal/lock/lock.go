// Package lock provides leased per-user advisory locks guarding the
// generation lifecycle. A lock always carries a TTL so a crashed holder
// releases it by expiry rather than stranding the user forever.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrHeld is returned when the lock is already held by another run.
// Callers surface this as Busy and must not queue behind the holder.
var ErrHeld = errors.New("lock: already held")

// Release releases an acquired lock. Safe to call after lease expiry;
// only the original holder's release takes effect.
type Release func(ctx context.Context) error

// Locker is a leased mutual-exclusion primitive keyed by an arbitrary string.
type Locker interface {
	Acquire(ctx context.Context, key string, lease time.Duration) (Release, error)
}
