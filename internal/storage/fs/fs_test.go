package fs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore/internal/apperror"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	root := t.TempDir()
	_, err := New(root)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(root, blobDirName))
	assert.DirExists(t, filepath.Join(root, tempDirName))

	_, err = New("")
	assert.Error(t, err)
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	data := []byte{0x00, 0xff, 0x10, 'a'}
	require.NoError(t, s.Put(ctx, "documents/one", data))

	got, err := s.Get(ctx, "documents/one")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	entries, err := os.ReadDir(filepath.Join(s.root, tempDirName))
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must be cleaned up")
}

func TestStore_PutEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, "documents/empty", []byte{}))
	got, err := s.Get(ctx, "documents/empty")
	require.NoError(t, err)
	assert.Len(t, got, 0)
}

func TestStore_WriteOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, "documents/one", []byte("first")))
	err := s.Put(ctx, "documents/one", []byte("second"))
	assert.ErrorIs(t, err, apperror.ErrKeyExists)

	got, err := s.Get(ctx, "documents/one")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)
}

func TestStore_ConcurrentPutSameKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Put(ctx, "documents/race", []byte{byte(i)})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperror.ErrKeyExists)
	}
	assert.Equal(t, 1, succeeded)
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "documents/missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, "documents/one", []byte("x")))
	require.NoError(t, s.Delete(ctx, "documents/one"))
	require.NoError(t, s.Delete(ctx, "documents/one"))
	require.NoError(t, s.Delete(ctx, "documents/never-written"))

	_, err := s.Get(ctx, "documents/one")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	entries, err := os.ReadDir(filepath.Join(s.root, blobDirName))
	require.NoError(t, err)
	assert.Empty(t, entries, "empty shard directories must be removed")
}

func TestStore_InvalidKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	assert.ErrorIs(t, s.Put(ctx, "", []byte("x")), apperror.ErrValidation)
	_, err := s.Get(ctx, "bad\x00key")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestStore_PathStaysUnderRoot(t *testing.T) {
	s := newTestStore(t)
	p := s.pathFor("../../etc/passwd")
	rel, err := filepath.Rel(filepath.Join(s.root, blobDirName), p)
	require.NoError(t, err)
	assert.NotContains(t, rel, "..")
}
