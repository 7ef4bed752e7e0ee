package cache

import (
	"context"
	"testing"

	"github.com/anoixa/photo-album/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Memory(t *testing.T) {
	provider, err := NewProvider(context.Background(), &config.Config{CacheType: "memory"})
	require.NoError(t, err)
	defer provider.Close()

	assert.Equal(t, "memory", provider.Name())
	assert.NoError(t, provider.Ping(context.Background()))
}

func TestNewProvider_Unsupported(t *testing.T) {
	_, err := NewProvider(context.Background(), &config.Config{CacheType: "memcached"})
	assert.Error(t, err)
}

func TestKeyBuilder(t *testing.T) {
	assert.Equal(t, "reset_otp:a@b.com", ResetOTP.Build("a@b.com"))
	assert.Equal(t, "reset_otp_attempts:7", ResetOTPAttempts.BuildID(7))
	assert.Equal(t, "x", NewKeyBuilder("x").Build())
}
