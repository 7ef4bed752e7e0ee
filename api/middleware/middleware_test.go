package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/photo-album/config"
	"github.com/anoixa/photo-album/database/models"
)

type stubLoader struct {
	users map[uint]*models.User
}

func (s *stubLoader) GetUser(_ context.Context, id uint) (*models.User, error) {
	return s.users[id], nil
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:     "0123456789abcdef0123456789abcdef",
		SessionName:   "test_session",
		SessionMaxAge: 3600,
	}
}

// newTestEngine wires the session stack plus a few probe routes.
func newTestEngine(loader UserLoader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Sessions(testConfig()), LoadUser(loader))

	r.GET("/login-as/:id", func(c *gin.Context) {
		id := uint(1)
		if c.Param("id") == "2" {
			id = 2
		}
		Login(c, &models.User{ID: id})
		SaveSession(c)
		c.Status(http.StatusNoContent)
	})
	r.GET("/token", func(c *gin.Context) {
		token := CSRFToken(c)
		SaveSession(c)
		c.String(http.StatusOK, token)
	})
	r.GET("/flash", func(c *gin.Context) {
		AddFlash(c, FlashSuccess, "saved")
		AddFlash(c, FlashDanger, "oops")
		SaveSession(c)
		c.Status(http.StatusNoContent)
	})
	r.GET("/flashes", func(c *gin.Context) {
		flashes := Flashes(c)
		SaveSession(c)
		c.JSON(http.StatusOK, flashes)
	})

	private := r.Group("/", RequireLogin())
	private.GET("/home", func(c *gin.Context) {
		c.String(http.StatusOK, "user %d", CurrentUser(c).ID)
	})
	r.GET("/api/v1/me", RequireLogin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.POST("/form", CSRF(nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

// do sends a request carrying the cookies collected so far.
func do(t *testing.T, r http.Handler, req *http.Request, cookies []*http.Cookie) (*httptest.ResponseRecorder, []*http.Cookie) {
	t.Helper()
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if set := w.Result().Cookies(); len(set) > 0 {
		cookies = set[len(set)-1:]
	}
	return w, cookies
}

func TestRequireLogin(t *testing.T) {
	loader := &stubLoader{users: map[uint]*models.User{1: {ID: 1, Username: "alice"}}}
	r := newTestEngine(loader)

	t.Run("anonymous page redirects to login", func(t *testing.T) {
		w, _ := do(t, r, httptest.NewRequest(http.MethodGet, "/home", nil), nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("anonymous api gets 401", func(t *testing.T) {
		w, _ := do(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authentication required")
	})

	t.Run("logged in user passes", func(t *testing.T) {
		_, cookies := do(t, r, httptest.NewRequest(http.MethodGet, "/login-as/1", nil), nil)
		require.NotEmpty(t, cookies)

		w, _ := do(t, r, httptest.NewRequest(http.MethodGet, "/home", nil), cookies)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user 1", w.Body.String())
	})

	t.Run("deleted account is treated as anonymous", func(t *testing.T) {
		_, cookies := do(t, r, httptest.NewRequest(http.MethodGet, "/login-as/2", nil), nil)

		w, _ := do(t, r, httptest.NewRequest(http.MethodGet, "/home", nil), cookies)
		assert.Equal(t, http.StatusSeeOther, w.Code)
	})
}

func TestFlashes(t *testing.T) {
	r := newTestEngine(&stubLoader{})

	_, cookies := do(t, r, httptest.NewRequest(http.MethodGet, "/flash", nil), nil)
	w, cookies := do(t, r, httptest.NewRequest(http.MethodGet, "/flashes", nil), cookies)
	assert.JSONEq(t, `[{"Category":"success","Message":"saved"},{"Category":"danger","Message":"oops"}]`, w.Body.String())

	w, _ = do(t, r, httptest.NewRequest(http.MethodGet, "/flashes", nil), cookies)
	assert.Equal(t, "null", w.Body.String())
}

func TestCSRF(t *testing.T) {
	r := newTestEngine(&stubLoader{})

	w, cookies := do(t, r, httptest.NewRequest(http.MethodGet, "/token", nil), nil)
	token := w.Body.String()
	require.NotEmpty(t, token)

	post := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(url.Values{CSRFFormField: {value}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	t.Run("valid form token", func(t *testing.T) {
		w, _ := do(t, r, post(token), cookies)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("valid header token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/form", nil)
		req.Header.Set(CSRFHeader, token)
		w, _ := do(t, r, req, cookies)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		w, _ := do(t, r, post("nope"), cookies)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no session token", func(t *testing.T) {
		w, _ := do(t, r, post(token), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIPRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewIPRateLimiter(0.001, 2, time.Minute)
	defer rl.StopCleanup()

	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// a different client has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIPRateLimiterSweep(t *testing.T) {
	rl := NewIPRateLimiter(1, 1, time.Minute)
	defer rl.StopCleanup()
	rl.StopCleanup()

	rl.Allow("10.0.0.1")
	rl.sweep(time.Now())
	_, ok := rl.limiterMap.Load("10.0.0.1")
	assert.True(t, ok)

	rl.sweep(time.Now().Add(2 * time.Minute))
	_, ok = rl.limiterMap.Load("10.0.0.1")
	assert.False(t, ok)
}

func TestIPRateLimiterOnLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewIPRateLimiter(0.001, 1, time.Minute).OnLimit(func(c *gin.Context) {
		c.String(http.StatusTooManyRequests, "slow down")
	})
	defer rl.StopCleanup()

	r := gin.New()
	r.POST("/x", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		if i == 1 {
			assert.Equal(t, "slow down", w.Body.String())
		}
	}
}

func TestConcurrencyLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cl := NewConcurrencyLimiter(1)

	release := make(chan struct{})
	entered := make(chan struct{})
	r := gin.New()
	r.Use(cl.Middleware())
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	done := make(chan int)
	go func() {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
		done <- w.Code
	}()
	<-entered

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestRequestLoggerCounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := GetMetrics()["request_count"].(int64)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, before+1, GetMetrics()["request_count"].(int64))
}
