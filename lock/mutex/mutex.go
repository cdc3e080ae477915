package mutex

import (
	"context"
	"fmt"

	"github.com/projecteru2/easydoc/lock"
)

// compile-time interface check.
var _ lock.Locker = (*Mutex)(nil)

// Mutex is an in-process lock backed by a size-1 buffered channel.
// A goroutine holds the lock while its token sits in ch. Unlike sync.Mutex the
// wait honours ctx.
type Mutex struct {
	name string
	ch   chan struct{}
}

// New creates an unlocked Mutex. name only appears in error messages.
func New(name string) *Mutex {
	return &Mutex{name: name, ch: make(chan struct{}, 1)}
}

// Lock acquires the token, blocking until available or ctx is done.
func (m *Mutex) Lock(ctx context.Context) error {
	// A done ctx must not win a race against a free token.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("acquire lock %s: %w", m.name, err)
	}
	select {
	case m.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("acquire lock %s: %w", m.name, ctx.Err())
	}
}

// TryLock acquires the token without blocking.
func (m *Mutex) TryLock(_ context.Context) (bool, error) {
	select {
	case m.ch <- struct{}{}:
		return true, nil
	default:
		return false, nil
	}
}

// Unlock releases the token. Unlocking an unlocked Mutex is an error.
func (m *Mutex) Unlock(_ context.Context) error {
	select {
	case <-m.ch:
		return nil
	default:
		return fmt.Errorf("release lock %s: not locked", m.name)
	}
}
