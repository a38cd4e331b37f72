package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLock(t *testing.T) {
	t.Run("Should acquire and release the lock", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.lock")
		lock := NewRunLock(path)
		require.NoError(t, lock.Acquire(context.Background()))
		assert.NoError(t, lock.Release())
	})
	t.Run("Should allow reacquisition after release", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.lock")
		lock := NewRunLock(path)
		require.NoError(t, lock.Acquire(context.Background()))
		require.NoError(t, lock.Release())
		second := NewRunLock(path)
		require.NoError(t, second.Acquire(context.Background()))
		assert.NoError(t, second.Release())
	})
}
