package bolt_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projecteru2/easydoc/storage/bolt"
	"github.com/projecteru2/easydoc/storage/storagetest"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "docs.db")
	s, err := bolt.Open(ctx, path, "", time.Second)
	require.NoError(t, err)

	storagetest.Run(t, s)
	t.Cleanup(func() { _ = s.Close() })

	t.Run("reopen keeps content test", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "persisted", []byte("still here")))
		require.NoError(t, s.Close())

		s, err = bolt.Open(ctx, path, bolt.DefaultBucket, time.Second)
		require.NoError(t, err)

		content, err := s.Read(ctx, "persisted")
		require.NoError(t, err)
		assert.Equal(t, "still here", string(content))
	})

	t.Run("second open times out test", func(t *testing.T) {
		_, err := bolt.Open(ctx, path, "", 50*time.Millisecond)
		assert.Error(t, err)
	})
}
