package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	token     string
	expiresAt time.Time
}

// MutexLocker is an in-process Locker keyed by user id, for single-instance
// deployments and tests. Entries honor the same lease semantics as the redis
// variant: an expired entry is treated as free.
type MutexLocker struct {
	mu   sync.Mutex
	held map[string]entry
	now  func() time.Time
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{held: make(map[string]entry), now: time.Now}
}

func (l *MutexLocker) Acquire(_ context.Context, key string, lease time.Duration) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.held[key]; ok && l.now().Before(e.expiresAt) {
		return nil, ErrHeld
	}

	token := uuid.NewString()
	l.held[key] = entry{token: token, expiresAt: l.now().Add(lease)}

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, ok := l.held[key]; ok && e.token == token {
			delete(l.held, key)
		}
		return nil
	}
	return release, nil
}
