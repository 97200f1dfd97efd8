package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKV(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	kv, err := NewFileKV(root)
	require.NoError(t, err)

	_, err = kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Put(ctx, "img_session_a", []byte(`{"v":1}`)))
	require.NoError(t, kv.Put(ctx, "img_session_a", []byte(`{"v":2}`)))
	require.NoError(t, kv.Put(ctx, "other_b", []byte(`{}`)))

	data, err := kv.Get(ctx, "img_session_a")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))

	keys, err := kv.Keys(ctx, "img_session_")
	require.NoError(t, err)
	assert.Equal(t, []string{"img_session_a"}, keys)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, ".json", filepath.Ext(e.Name()), "leftover temp file %s", e.Name())
	}
}

func TestFileKVRejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, kv.Put(ctx, "../escape", []byte("x")), ErrInvalidID)
	_, err = kv.Get(ctx, "..")
	assert.ErrorIs(t, err, ErrInvalidID)
}
