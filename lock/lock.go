package lock

import (
	"context"
	"fmt"
)

// Locker provides mutual exclusion with context support.
type Locker interface {
	// Lock blocks until the lock is held or ctx is done.
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
	// TryLock returns (false, nil) if the lock is held by another caller.
	TryLock(ctx context.Context) (bool, error)
}

// WithLock runs fn while holding l. The lock is released even if fn fails;
// fn's error wins over an unlock error.
func WithLock(ctx context.Context, l Locker, fn func() error) (err error) {
	if err := l.Lock(ctx); err != nil {
		return err
	}
	defer func() {
		if unlockErr := l.Unlock(ctx); unlockErr != nil && err == nil {
			err = fmt.Errorf("unlock: %w", unlockErr)
		}
	}()
	return fn()
}
