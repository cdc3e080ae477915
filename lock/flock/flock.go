package flock

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"github.com/projecteru2/easydoc/lock"
	"github.com/projecteru2/easydoc/lock/mutex"
)

const retryDelay = 50 * time.Millisecond

// compile-time interface check.
var _ lock.Locker = (*Lock)(nil)

// Lock guards a file-backed resource against both goroutines and processes:
//   - in-process exclusion via a mutex.Mutex token;
//   - cross-process exclusion via flock(2) on path, with a fresh fd for every
//     acquisition.
type Lock struct {
	path  string
	token *mutex.Mutex
	// fl is the active flock fd, non-nil while the lock is held.
	fl *flock.Flock
}

// New creates a Lock for the given lock file path.
func New(path string) *Lock {
	return &Lock{path: path, token: mutex.New(path)}
}

// Lock acquires the lock, blocking until available or ctx is done.
func (l *Lock) Lock(ctx context.Context) error {
	if err := l.token.Lock(ctx); err != nil {
		return err
	}
	fl := flock.New(l.path)
	ok, err := fl.TryLockContext(ctx, retryDelay)
	if err != nil || !ok {
		_ = l.token.Unlock(ctx)
		if err == nil {
			err = ctx.Err()
		}
		return fmt.Errorf("acquire flock %s: %w", l.path, err)
	}
	l.fl = fl
	return nil
}

// TryLock attempts a non-blocking acquisition.
func (l *Lock) TryLock(ctx context.Context) (bool, error) {
	if ok, _ := l.token.TryLock(ctx); !ok {
		return false, nil
	}
	fl := flock.New(l.path)
	ok, err := fl.TryLock()
	if err != nil || !ok {
		_ = l.token.Unlock(ctx)
		if err != nil {
			return false, fmt.Errorf("try flock %s: %w", l.path, err)
		}
		return false, nil
	}
	l.fl = fl
	return true, nil
}

// Unlock releases the file lock, then the in-process token.
func (l *Lock) Unlock(ctx context.Context) error {
	var err error
	if l.fl != nil {
		err = l.fl.Unlock()
		l.fl = nil
	}
	if tokenErr := l.token.Unlock(ctx); tokenErr != nil && err == nil {
		err = tokenErr
	}
	if err != nil {
		return fmt.Errorf("release flock %s: %w", l.path, err)
	}
	return nil
}
