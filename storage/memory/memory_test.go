package memory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/projecteru2/easydoc/storage/memory"
	"github.com/projecteru2/easydoc/storage/storagetest"
)

func TestStore(t *testing.T) {
	s, err := memory.New()
	require.NoError(t, err)
	storagetest.Run(t, s)
}
