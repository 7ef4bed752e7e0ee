package storage

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live server when TEST_MINIO_ENDPOINT is set.
func TestMinioStorage_RoundTrip(t *testing.T) {
	endpoint := os.Getenv("TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("TEST_MINIO_ENDPOINT not set")
	}

	ctx := context.Background()
	storage, err := NewMinioStorage(ctx, MinioConfig{
		Endpoint:        endpoint,
		AccessKeyID:     os.Getenv("TEST_MINIO_ACCESS_KEY"),
		SecretAccessKey: os.Getenv("TEST_MINIO_SECRET_KEY"),
		BucketName:      "photo-album-test",
	})
	require.NoError(t, err)

	require.NoError(t, storage.SaveWithContext(ctx, "9/minio.txt", strings.NewReader("hello")))

	rc, err := storage.GetWithContext(ctx, "9/minio.txt")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "hello", string(data))

	keys, err := storage.List(ctx, "9/")
	require.NoError(t, err)
	assert.Contains(t, keys, "9/minio.txt")

	require.NoError(t, storage.DeleteWithContext(ctx, "9/minio.txt"))
	exists, err := storage.Exists(ctx, "9/minio.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNewMinioStorage_Validation(t *testing.T) {
	_, err := NewMinioStorage(context.Background(), MinioConfig{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}
