//go:build unix

package flock_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cadenceerrors "github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/flock"
)

func openLockFile(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) // #nosec G304 -- test code using safe temp dir
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExclusiveLock(t *testing.T) {
	t.Parallel()

	t.Run("acquires and releases lock on new file", func(t *testing.T) {
		t.Parallel()
		f := openLockFile(t, filepath.Join(t.TempDir(), "test.lock"))

		require.NoError(t, flock.Exclusive(f))
		require.NoError(t, flock.Unlock(f))
	})

	t.Run("fails to acquire lock when already held", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "test.lock")
		f1 := openLockFile(t, path)
		f2 := openLockFile(t, path)

		require.NoError(t, flock.Exclusive(f1))
		defer func() { _ = flock.Unlock(f1) }()

		assert.Error(t, flock.Exclusive(f2))
	})

	t.Run("lock can be reacquired after unlock", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "test.lock")
		f1 := openLockFile(t, path)
		f2 := openLockFile(t, path)

		require.NoError(t, flock.Exclusive(f1))
		require.NoError(t, flock.Unlock(f1))
		require.NoError(t, flock.Exclusive(f2))
		require.NoError(t, flock.Unlock(f2))
	})
}

func TestAcquire(t *testing.T) {
	t.Parallel()

	t.Run("second holder gets ErrLockHeld", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "cadence.lock")

		first, err := flock.Acquire(path)
		require.NoError(t, err)
		assert.Equal(t, path, first.Path())

		_, err = flock.Acquire(path)
		require.ErrorIs(t, err, cadenceerrors.ErrLockHeld)

		require.NoError(t, first.Release())

		second, err := flock.Acquire(path)
		require.NoError(t, err)
		require.NoError(t, second.Release())
	})

	t.Run("release is idempotent", func(t *testing.T) {
		t.Parallel()
		lock, err := flock.Acquire(filepath.Join(t.TempDir(), "cadence.lock"))
		require.NoError(t, err)
		require.NoError(t, lock.Release())
		require.NoError(t, lock.Release())

		var nilLock *flock.Lock
		require.NoError(t, nilLock.Release())
	})

	t.Run("missing directory is an open error", func(t *testing.T) {
		t.Parallel()
		_, err := flock.Acquire(filepath.Join(t.TempDir(), "missing", "cadence.lock"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, cadenceerrors.ErrLockHeld)
	})
}
