package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLocalStorage_PathTraversal_Prevention 测试路径遍历防护
func TestLocalStorage_PathTraversal_Prevention(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	traversalAttempts := []string{
		"../../../etc/passwd",
		"..\\..\\..\\windows\\system32\\config\\sam",
		"../../.env",
		"..",
		".",
		"",
		"folder/../../../etc/passwd",
	}

	for _, attempt := range traversalAttempts {
		t.Run("save_"+attempt, func(t *testing.T) {
			err := storage.SaveWithContext(ctx, attempt, strings.NewReader("x"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid")
		})
		t.Run("get_"+attempt, func(t *testing.T) {
			_, err := storage.GetWithContext(ctx, attempt)
			assert.Error(t, err)
		})
		t.Run("delete_"+attempt, func(t *testing.T) {
			assert.Error(t, storage.DeleteWithContext(ctx, attempt))
		})
	}
}

func TestLocalStorage_SaveGetDelete(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewLocalStorage(dir)
	require.NoError(t, err)

	ctx := context.Background()
	key := "7/0123abcd.jpg"

	require.NoError(t, storage.SaveWithContext(ctx, key, strings.NewReader("jpeg bytes")))

	_, err = os.Stat(filepath.Join(dir, "7", "0123abcd.jpg"))
	require.NoError(t, err)

	exists, err := storage.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := storage.GetWithContext(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	require.NoError(t, storage.DeleteWithContext(ctx, key))

	exists, err = storage.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	// empty owner directory is pruned
	_, err = os.Stat(filepath.Join(dir, "7"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorage_MissingFile(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	_, err = storage.GetWithContext(ctx, "1/missing.png")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = storage.DeleteWithContext(ctx, "1/missing.png")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, IgnoreNotFound(err))
}

func TestLocalStorage_SaveCancelled(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewLocalStorage(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = storage.SaveWithContext(ctx, "1/a.png", strings.NewReader("data"))
	require.Error(t, err)

	keys, err := storage.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, keys, "no partial or temp file should be visible")
}

func TestLocalStorage_List(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	for _, key := range []string{"1/a.jpg", "1/b.png", "2/c.gif"} {
		require.NoError(t, storage.SaveWithContext(ctx, key, strings.NewReader(key)))
	}

	all, err := storage.List(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1/a.jpg", "1/b.png", "2/c.gif"}, all)

	owned, err := storage.List(ctx, "1/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1/a.jpg", "1/b.png"}, owned)
}

func TestLocalStorage_Health(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, storage.Health(context.Background()))
	assert.Equal(t, "local", storage.Name())
}
