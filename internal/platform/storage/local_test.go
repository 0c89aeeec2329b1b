package storage

import (
	"context"
	"io"
	"testing"

	"propspot_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupLocalBucket(t *testing.T) *LocalBucket {
	t.Helper()
	b, err := NewLocalBucket(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return b
}

func TestLocalBucket_WriteOpenExists(t *testing.T) {
	b := setupLocalBucket(t)
	ctx := context.Background()

	ok, err := b.Exists(ctx, "props/a.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Write(ctx, "props/a.jpg", "image/jpeg", []byte("jpeg-bytes")))

	ok, err = b.Exists(ctx, "props/a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := b.Open(ctx, "props/a.jpg")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestLocalBucket_ListByPrefix(t *testing.T) {
	b := setupLocalBucket(t)
	ctx := context.Background()
	for _, name := range []string{"props/b.jpg", "props/a.jpg", "avatars/x.png"} {
		require.NoError(t, b.Write(ctx, name, "image/jpeg", []byte("x")))
	}

	names, err := b.List(ctx, "props/")
	require.NoError(t, err)
	assert.Equal(t, []string{"props/a.jpg", "props/b.jpg"}, names)

	all, err := b.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLocalBucket_RejectsEscapingNames(t *testing.T) {
	b := setupLocalBucket(t)
	ctx := context.Background()

	assert.Error(t, b.Write(ctx, "../outside.jpg", "image/jpeg", []byte("x")))
	_, err := b.Open(ctx, "../../etc/passwd")
	assert.Error(t, err)
	_, err = b.Exists(ctx, "")
	assert.Error(t, err)
}

func TestNew_SelectsBackend(t *testing.T) {
	_, err := New(context.Background(), &config.Config{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrDisabled)

	dir := t.TempDir()
	b, err := New(context.Background(), &config.Config{StorageBucket: "file://" + dir}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LocalBucket{}, b)
}
