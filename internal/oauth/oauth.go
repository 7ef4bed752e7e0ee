package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/oauth2"

	"github.com/anoixa/photo-album/config"
)

var (
	// ErrDisabled no OpenID Connect provider is configured
	ErrDisabled = errors.New("oauth login is not configured")

	// ErrMissingEmail the provider returned no usable email address
	ErrMissingEmail = errors.New("oauth profile has no email address")
)

// Profile identity claims taken from a verified ID token
type Profile struct {
	Subject       string `mapstructure:"sub"`
	Issuer        string `mapstructure:"iss"`
	Email         string `mapstructure:"email"`
	EmailVerified bool   `mapstructure:"email_verified"`
	Name          string `mapstructure:"name"`
	GivenName     string `mapstructure:"given_name"`
	Picture       string `mapstructure:"picture"`
}

// ProviderName short label stored on accounts created by this login.
func (p *Profile) ProviderName() string {
	u, err := url.Parse(p.Issuer)
	if err != nil || u.Host == "" {
		return "oidc"
	}
	return u.Host
}

// DisplayName falls back to the given name and then the email local part.
func (p *Profile) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.GivenName != "":
		return p.GivenName
	default:
		local, _, _ := strings.Cut(p.Email, "@")
		return local
	}
}

// Provider is the authorization-code flow used by the login routes.
type Provider interface {
	AuthCodeURL(state, nonce string) string
	Exchange(ctx context.Context, code, nonce string) (*Profile, error)
}

// OIDCProvider talks to a discovery-based OpenID Connect issuer. Discovery
// runs on first use and is retried after a failure.
type OIDCProvider struct {
	issuer       string
	clientID     string
	clientSecret string
	redirectURL  string

	mu       sync.Mutex
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewProvider returns ErrDisabled when the client id or issuer is missing.
func NewProvider(cfg *config.Config) (*OIDCProvider, error) {
	if !cfg.OAuthEnabled() {
		return nil, ErrDisabled
	}
	return &OIDCProvider{
		issuer:       cfg.OAuthDiscoveryURL,
		clientID:     cfg.OAuthClientID,
		clientSecret: cfg.OAuthClientSecret,
		redirectURL:  cfg.OAuthRedirectURL,
	}, nil
}

func (p *OIDCProvider) discover(ctx context.Context) (*oauth2.Config, *oidc.IDTokenVerifier, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.config != nil {
		return p.config, p.verifier, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	provider, err := oidc.NewProvider(ctx, p.issuer)
	if err != nil {
		return nil, nil, fmt.Errorf("oidc discovery failed for %s: %w", p.issuer, err)
	}

	p.config = &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURL:  p.redirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	p.verifier = provider.Verifier(&oidc.Config{ClientID: p.clientID})
	return p.config, p.verifier, nil
}

// AuthCodeURL returns the issuer consent URL, or "" when discovery fails.
func (p *OIDCProvider) AuthCodeURL(state, nonce string) string {
	cfg, _, err := p.discover(context.Background())
	if err != nil {
		return ""
	}
	return cfg.AuthCodeURL(state, oidc.Nonce(nonce))
}

// Exchange trades the code for tokens and verifies the ID token and nonce.
func (p *OIDCProvider) Exchange(ctx context.Context, code, nonce string) (*Profile, error) {
	cfg, verifier, err := p.discover(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("token response has no id_token")
	}

	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id token: %w", err)
	}
	if idToken.Nonce != nonce {
		return nil, errors.New("id token nonce mismatch")
	}

	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to read id token claims: %w", err)
	}
	return DecodeProfile(claims)
}

// DecodeProfile maps raw claims onto a Profile. Some providers send
// email_verified as a string, so input is decoded weakly.
func DecodeProfile(claims map[string]interface{}) (*Profile, error) {
	var profile Profile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &profile,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(claims); err != nil {
		return nil, fmt.Errorf("failed to decode profile claims: %w", err)
	}

	profile.Email = strings.TrimSpace(profile.Email)
	if profile.Email == "" || !strings.Contains(profile.Email, "@") {
		return nil, ErrMissingEmail
	}
	return &profile, nil
}
