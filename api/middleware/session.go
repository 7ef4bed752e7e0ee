package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anoixa/photo-album/api/common"
	"github.com/anoixa/photo-album/config"
	"github.com/anoixa/photo-album/database/models"
)

const (
	sessionUserIDKey = "user_id"
	contextUserKey   = "current_user"

	defaultSessionName = "photo_album_session"
)

// UserLoader resolves the session's user id. nil, nil means the account is gone.
type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// Sessions signed cookie session store
func Sessions(cfg *config.Config) gin.HandlerFunc {
	store := cookie.NewStore([]byte(cfg.SecretKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	name := cfg.SessionName
	if name == "" {
		name = defaultSessionName
	}
	return sessions.Sessions(name, store)
}

// LoadUser attaches the logged-in user to the context. A session pointing
// at a deleted account is cleared.
func LoadUser(loader UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id, ok := session.Get(sessionUserIDKey).(uint)
		if !ok || id == 0 {
			c.Next()
			return
		}

		user, err := loader.GetUser(c.Request.Context(), id)
		switch {
		case err != nil:
			logrus.WithError(err).WithField("user_id", id).Error("Failed to load session user")
		case user == nil:
			session.Delete(sessionUserIDKey)
			if err := session.Save(); err != nil {
				logrus.WithError(err).Warn("Failed to clear stale session")
			}
		default:
			c.Set(contextUserKey, user)
		}
		c.Next()
	}
}

// CurrentUser 当前登录用户, nil when anonymous
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// Login starts a fresh session for user. The caller saves the session.
func Login(c *gin.Context, user *models.User) {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserIDKey, user.ID)
	c.Set(contextUserKey, user)
}

// Logout drops everything in the session. The caller saves the session.
func Logout(c *gin.Context) {
	sessions.Default(c).Clear()
	c.Set(contextUserKey, (*models.User)(nil))
}

// SaveSession persists pending session changes. Call before writing the body.
func SaveSession(c *gin.Context) {
	if err := sessions.Default(c).Save(); err != nil {
		logrus.WithError(err).Error("Failed to save session")
	}
}

// RequireLogin rejects anonymous requests: 401 JSON under /api/, a redirect
// to the login page everywhere else.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		AddFlash(c, FlashInfo, "Please log in to access this page.")
		SaveSession(c)
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
	}
}

// RedirectIfLoggedIn sends authenticated users away from guest-only pages.
func RedirectIfLoggedIn(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Redirect(http.StatusSeeOther, target)
			c.Abort()
			return
		}
		c.Next()
	}
}
