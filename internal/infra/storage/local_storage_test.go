package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justraqib/semantic-photo/internal/shared"
)

func TestLocalStore_PutGetDeleteRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	data := []byte("fake jpeg bytes")
	key := "users/u1/photos/abc.jpg"

	require.NoError(t, store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "image/jpeg"))

	rc, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Get(ctx, key)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestLocalStore_GetMissingKeyReturnsNotFound(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "users/u1/photos/missing.jpg")
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestLocalStore_RejectsPathTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	err = store.Put(context.Background(), "../escape.jpg", bytes.NewReader(nil), 0, "image/jpeg")
	assert.Error(t, err)
}

func TestLocalStore_PresignGetReturnsPathForExistingKey(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := "users/u1/thumbnails/abc.webp"
	require.NoError(t, store.Put(ctx, key, bytes.NewReader([]byte("x")), 1, "image/webp"))

	url, err := store.PresignGet(ctx, key, 0)
	require.NoError(t, err)
	assert.Contains(t, url, key)
}
