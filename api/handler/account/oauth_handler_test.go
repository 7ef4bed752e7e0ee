package account

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/photo-album/api/middleware"
	"github.com/anoixa/photo-album/config"
	"github.com/anoixa/photo-album/internal/app"
	"github.com/anoixa/photo-album/internal/oauth"
	"github.com/anoixa/photo-album/web"
)

// fakeProvider hands out a fixed profile and records the nonce it saw.
type fakeProvider struct {
	profile   *oauth.Profile
	gotNonce  string
	wantNonce string
}

func (f *fakeProvider) AuthCodeURL(state, nonce string) string {
	f.wantNonce = nonce
	return "https://idp.example.com/auth?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Exchange(_ context.Context, code, nonce string) (*oauth.Profile, error) {
	f.gotNonce = nonce
	if code != "good-code" {
		return nil, oauth.ErrMissingEmail
	}
	return f.profile, nil
}

func newOAuthServer(t *testing.T, provider oauth.Provider) (*httptest.Server, *app.Container) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.Config{
		SecretKey:   "0123456789abcdef0123456789abcdef",
		SessionName: "test_session",
		DBType:      "sqlite",
		DBFilePath:  filepath.Join(dir, "album.db"),
		StorageType: "local",
		UploadDir:   filepath.Join(dir, "uploads"),
		CacheType:   "memory",
	}
	container := app.NewContainer(cfg)
	require.NoError(t, container.Init(context.Background()))

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	h := NewHandler(container.AuthService, container.PhotoService, container.StatsService, provider)
	r := gin.New()
	r.HTMLRender = renderer
	r.Use(middleware.Sessions(cfg), middleware.LoadUser(container.AuthService))
	r.GET("/login", h.LoginPage)
	r.GET("/login/oauth", h.OAuthStart)
	r.GET("/login/callback", h.OAuthCallback)
	r.GET("/home", middleware.RequireLogin(), func(c *gin.Context) {
		c.String(http.StatusOK, middleware.CurrentUser(c).Email)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		_ = container.Close()
	})
	return srv, container
}

func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// startFlow begins a login and returns the state handed to the provider.
func startFlow(t *testing.T, client *http.Client, base string) string {
	t.Helper()
	resp, err := client.Get(base + "/login/oauth")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "idp.example.com", loc.Host)
	return loc.Query().Get("state")
}

func callback(t *testing.T, client *http.Client, base, state, code string) *http.Response {
	t.Helper()
	resp, err := client.Get(base + "/login/callback?" + url.Values{"state": {state}, "code": {code}}.Encode())
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestOAuthLoginCreatesAccountOnce(t *testing.T) {
	provider := &fakeProvider{profile: &oauth.Profile{
		Subject: "abc", Issuer: "https://idp.example.com", Email: "Zoe@Example.com", EmailVerified: true, Name: "Zoe",
	}}
	srv, container := newOAuthServer(t, provider)

	for i := 0; i < 2; i++ {
		client := newClient(t)
		state := startFlow(t, client, srv.URL)

		resp := callback(t, client, srv.URL, state, "good-code")
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/home", resp.Header.Get("Location"))
		assert.Equal(t, provider.wantNonce, provider.gotNonce)

		home, err := client.Get(srv.URL + "/home")
		require.NoError(t, err)
		home.Body.Close()
		assert.Equal(t, http.StatusOK, home.StatusCode)
	}

	users, err := container.AuthService.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "zoe@example.com", users[0].Email)
	assert.False(t, users[0].HasPassword())
}

func TestOAuthCallbackRejectsBadState(t *testing.T) {
	provider := &fakeProvider{profile: &oauth.Profile{Email: "zoe@example.com"}}
	srv, container := newOAuthServer(t, provider)

	client := newClient(t)
	startFlow(t, client, srv.URL)

	resp := callback(t, client, srv.URL, "forged-state", "good-code")
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	users, err := container.AuthService.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestOAuthExchangeFailure(t *testing.T) {
	provider := &fakeProvider{}
	srv, _ := newOAuthServer(t, provider)

	client := newClient(t)
	state := startFlow(t, client, srv.URL)
	resp := callback(t, client, srv.URL, state, "bad-code")
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	home, err := client.Get(srv.URL + "/home")
	require.NoError(t, err)
	home.Body.Close()
	assert.Equal(t, http.StatusSeeOther, home.StatusCode)
}

func TestOAuthDisabled(t *testing.T) {
	srv, _ := newOAuthServer(t, nil)

	client := newClient(t)
	resp, err := client.Get(srv.URL + "/login/oauth")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}
