package filelock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), "test.lock"))

	require.NoError(t, lock.Lock())
	assert.FileExists(t, lock.Path())
	require.NoError(t, lock.Unlock())
}

func TestTryLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	holder := NewFileLock(path)
	require.NoError(t, holder.Lock())

	other := NewFileLock(path)
	acquired, err := other.TryLock()
	require.NoError(t, err)
	assert.False(t, acquired, "lock is held by another handle")

	require.NoError(t, holder.Unlock())
	acquired, err = other.TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, other.Unlock())
}

func TestLockContextTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	holder := NewFileLock(path)
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := NewFileLock(path).LockContext(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithLockSerializes(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "nested", "db.lock")

	var mu sync.Mutex
	inside := 0
	maxInside := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(context.Background(), lockPath, func() error {
				mu.Lock()
				inside++
				maxInside = max(maxInside, inside)
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside)
}

func TestWithLockReturnsFnError(t *testing.T) {
	boom := errors.New("boom")
	err := WithLock(context.Background(), filepath.Join(t.TempDir(), "x.lock"), func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestAtomicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "report.txt")

	require.NoError(t, AtomicWrite(path, []byte("first")))
	require.NoError(t, AtomicWrite(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestAtomicWriteFuncFailureLeavesOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0644))

	boom := errors.New("render failed")
	err := AtomicWriteFunc(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	require.ErrorIs(t, err, boom)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestLockAndWriteConcurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := LockAndWrite(context.Background(), path, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "writer-%02d\n", i)
				return err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `^writer-\d{2}\n$`, string(data), "exactly one complete write wins")

	_, err = os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(err), "lock file removed")
}
