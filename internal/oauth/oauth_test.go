package oauth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/photo-album/config"
)

func TestDecodeProfile(t *testing.T) {
	profile, err := DecodeProfile(map[string]interface{}{
		"sub":            "1234567890",
		"iss":            "https://accounts.google.com",
		"email":          " ann@example.com ",
		"email_verified": "true",
		"name":           "Ann Lee",
		"exp":            1700000000.0,
		"aud":            []interface{}{"client"},
	})
	require.NoError(t, err)

	assert.Equal(t, "1234567890", profile.Subject)
	assert.Equal(t, "ann@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, "Ann Lee", profile.DisplayName())
	assert.Equal(t, "accounts.google.com", profile.ProviderName())
}

func TestDecodeProfile_MissingEmail(t *testing.T) {
	_, err := DecodeProfile(map[string]interface{}{"sub": "1"})
	assert.True(t, errors.Is(err, ErrMissingEmail))

	_, err = DecodeProfile(map[string]interface{}{"sub": "1", "email": "nobody"})
	assert.True(t, errors.Is(err, ErrMissingEmail))
}

func TestProfile_DisplayNameFallback(t *testing.T) {
	p := &Profile{Email: "sam.r@example.com"}
	assert.Equal(t, "sam.r", p.DisplayName())

	p.GivenName = "Sam"
	assert.Equal(t, "Sam", p.DisplayName())

	assert.Equal(t, "oidc", (&Profile{Issuer: "::bad"}).ProviderName())
}

func TestNewProvider_Disabled(t *testing.T) {
	_, err := NewProvider(&config.Config{})
	assert.True(t, errors.Is(err, ErrDisabled))
}

func TestNewProvider_Configured(t *testing.T) {
	p, err := NewProvider(&config.Config{
		OAuthClientID:     "client",
		OAuthClientSecret: "secret",
		OAuthDiscoveryURL: "https://accounts.example.com",
		OAuthRedirectURL:  "http://localhost:8080/login/callback",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.example.com", p.issuer)
}
