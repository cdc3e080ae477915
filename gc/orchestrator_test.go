package gc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projecteru2/easydoc/gc"
	"github.com/projecteru2/easydoc/lock/mutex"
)

func module(name string, l *mutex.Mutex, ids []string, collectErr error, collected *[]string) gc.Module[[]string] {
	return gc.Module[[]string]{
		Name:    name,
		Locker:  l,
		ReadDB:  func(context.Context) ([]string, error) { return ids, nil },
		Resolve: func(snap []string) []string { return snap },
		Collect: func(_ context.Context, ids []string) error {
			*collected = append(*collected, ids...)
			return collectErr
		},
	}
}

func TestOrchestrator(t *testing.T) {
	ctx := context.Background()

	t.Run("collects every module test", func(t *testing.T) {
		var collected []string
		o := gc.New()
		gc.Register(o, module("a", mutex.New("a"), []string{"a1", "a2"}, nil, &collected))
		gc.Register(o, module("b", mutex.New("b"), nil, nil, &collected))
		gc.Register(o, module("c", mutex.New("c"), []string{"c1"}, nil, &collected))

		n, err := o.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, []string{"a1", "a2", "c1"}, collected)
	})

	t.Run("skips busy modules test", func(t *testing.T) {
		var collected []string
		busy := mutex.New("busy")
		require.NoError(t, busy.Lock(ctx))
		o := gc.New()
		gc.Register(o, module("busy", busy, []string{"x"}, nil, &collected))

		n, err := o.Run(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, collected)
		require.NoError(t, busy.Unlock(ctx))
	})

	t.Run("errors do not stop other modules test", func(t *testing.T) {
		var collected []string
		l := mutex.New("a")
		o := gc.New()
		gc.Register(o, module("a", l, []string{"a1"}, errors.New("disk gone"), &collected))
		gc.Register(o, module("b", mutex.New("b"), []string{"b1"}, nil, &collected))

		n, err := o.Run(ctx)
		assert.ErrorContains(t, err, "disk gone")
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"a1", "b1"}, collected)

		ok, err := l.TryLock(ctx)
		require.NoError(t, err)
		assert.True(t, ok, "lock released after a failed collect")
	})
}
