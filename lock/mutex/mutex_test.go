package mutex_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projecteru2/easydoc/lock"
	"github.com/projecteru2/easydoc/lock/mutex"
)

func TestMutex(t *testing.T) {
	ctx := context.Background()

	t.Run("lock unlock test", func(t *testing.T) {
		m := mutex.New("a")
		require.NoError(t, m.Lock(ctx))
		ok, err := m.TryLock(ctx)
		assert.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, m.Unlock(ctx))

		ok, err = m.TryLock(ctx)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, m.Unlock(ctx))
	})

	t.Run("unlock without lock test", func(t *testing.T) {
		m := mutex.New("b")
		assert.Error(t, m.Unlock(ctx))
	})

	t.Run("bounded wait test", func(t *testing.T) {
		m := mutex.New("c")
		require.NoError(t, m.Lock(ctx))
		defer m.Unlock(ctx) //nolint:errcheck

		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
		defer cancel()
		start := time.Now()
		err := m.Lock(waitCtx)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("done context never acquires test", func(t *testing.T) {
		m := mutex.New("d")
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, m.Lock(cancelled), context.Canceled)
		ok, _ := m.TryLock(ctx)
		assert.True(t, ok)
	})

	t.Run("with lock releases on error test", func(t *testing.T) {
		m := mutex.New("e")
		boom := errors.New("boom")
		err := lock.WithLock(ctx, m, func() error { return boom })
		assert.ErrorIs(t, err, boom)

		ok, _ := m.TryLock(ctx)
		assert.True(t, ok)
	})
}
