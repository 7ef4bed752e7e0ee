package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/photo-album/config"
)

func TestIsValidStoragePath(t *testing.T) {
	tests := []struct {
		path  string
		valid bool
	}{
		{"1/abc.jpg", true},
		{"42/3f2a9c_x-y.png", true},
		{"photo.webp", true},
		{"", false},
		{".", false},
		{"/etc/passwd", false},
		{"../secret", false},
		{"1/../2/a.jpg", false},
		{"1//a.jpg", false},
		{"1/a b.jpg", false},
		{"1/a;rm.jpg", false},
		{"1\\a.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidStoragePath(tt.path))
		})
	}
}

func TestIgnoreNotFound(t *testing.T) {
	assert.NoError(t, IgnoreNotFound(nil))
	assert.NoError(t, IgnoreNotFound(fmt.Errorf("%w: 1/a.jpg", ErrNotFound)))

	other := fmt.Errorf("disk full")
	assert.Equal(t, other, IgnoreNotFound(other))
}

func TestNewFactory_Local(t *testing.T) {
	cfg := &config.Config{StorageType: "local", UploadDir: t.TempDir()}

	factory, err := NewFactory(context.Background(), cfg)
	require.NoError(t, err)

	provider := factory.GetDefault()
	require.NotNil(t, provider)
	assert.Equal(t, "local", provider.Name())

	got, err := factory.Get("local")
	require.NoError(t, err)
	assert.Same(t, provider, got)

	_, err = factory.Get("minio")
	assert.Error(t, err)
}

func TestNewFactory_Unsupported(t *testing.T) {
	cfg := &config.Config{StorageType: "ftp"}

	_, err := NewFactory(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage type")
}

func TestNewFactory_MinioRequiresEndpoint(t *testing.T) {
	cfg := &config.Config{StorageType: "minio"}

	_, err := NewFactory(context.Background(), cfg)
	assert.Error(t, err)
}
