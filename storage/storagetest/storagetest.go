// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projecteru2/easydoc/storage"
)

// Run exercises s against the storage.Storage contract. s must start empty.
func Run(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	t.Run("read absent test", func(t *testing.T) {
		content, err := s.Read(ctx, "absent")
		assert.NoError(t, err)
		assert.Nil(t, content)
	})

	t.Run("write read overwrite test", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "r1", []byte("first")))
		content, err := s.Read(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), content)

		require.NoError(t, s.Write(ctx, "r1", []byte("second")))
		content, err = s.Read(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), content)
	})

	t.Run("returned content is detached test", func(t *testing.T) {
		in := []byte("detached")
		require.NoError(t, s.Write(ctx, "r2", in))
		in[0] = 'X'
		out, err := s.Read(ctx, "r2")
		require.NoError(t, err)
		assert.Equal(t, []byte("detached"), out)
		out[0] = 'Y'
		again, err := s.Read(ctx, "r2")
		require.NoError(t, err)
		assert.Equal(t, []byte("detached"), again)
	})

	t.Run("delete is idempotent test", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "r3", []byte("gone soon")))
		require.NoError(t, s.Delete(ctx, "r3"))
		content, err := s.Read(ctx, "r3")
		assert.NoError(t, err)
		assert.Nil(t, content)
		assert.NoError(t, s.Delete(ctx, "r3"))
		assert.NoError(t, s.Delete(ctx, "never-written"))
	})

	t.Run("invalid ref test", func(t *testing.T) {
		_, err := s.Read(ctx, "")
		assert.ErrorIs(t, err, storage.ErrInvalidRef)
		assert.ErrorIs(t, s.Write(ctx, "../escape", []byte("x")), storage.ErrInvalidRef)
		assert.ErrorIs(t, s.Delete(ctx, "a/b"), storage.ErrInvalidRef)
	})

	t.Run("concurrent writers test", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Write(ctx, fmt.Sprintf("c%d", i), []byte(fmt.Sprintf("v%d", i))))
			}(i)
		}
		wg.Wait()
		for i := 0; i < 8; i++ {
			content, err := s.Read(ctx, fmt.Sprintf("c%d", i))
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("v%d", i), string(content))
		}
	})

	lister, ok := s.(storage.Lister)
	if !ok {
		return
	}
	t.Run("list test", func(t *testing.T) {
		refs, err := lister.List(ctx)
		require.NoError(t, err)
		sort.Strings(refs)
		assert.Equal(t, []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7", "r1", "r2"}, refs)
	})
}
