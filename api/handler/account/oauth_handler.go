package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anoixa/photo-album/api/handler/page"
	"github.com/anoixa/photo-album/api/middleware"
	"github.com/anoixa/photo-album/internal/oauth"
	"github.com/anoixa/photo-album/utils"
)

const (
	sessionOAuthState = "oauth_state"
	sessionOAuthNonce = "oauth_nonce"

	oauthExchangeTimeout = 15 * time.Second
)

// OAuthStart redirects to the identity provider.
func (h *Handler) OAuthStart(c *gin.Context) {
	if h.oauth == nil {
		page.FlashRedirect(c, middleware.FlashWarning, "Single sign-on is not configured.", "/login")
		return
	}

	state, err := utils.GenerateRandomToken(24)
	if err != nil {
		page.FlashRedirect(c, middleware.FlashDanger, page.MsgSomethingWrong, "/login")
		return
	}
	nonce, err := utils.GenerateRandomToken(24)
	if err != nil {
		page.FlashRedirect(c, middleware.FlashDanger, page.MsgSomethingWrong, "/login")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionOAuthState, state)
	session.Set(sessionOAuthNonce, nonce)
	page.Redirect(c, h.oauth.AuthCodeURL(state, nonce))
}

// OAuthCallback completes the flow and logs the user in, creating the
// account on first sight.
func (h *Handler) OAuthCallback(c *gin.Context) {
	if h.oauth == nil {
		page.NotFound(c)
		return
	}

	session := sessions.Default(c)
	state, _ := session.Get(sessionOAuthState).(string)
	nonce, _ := session.Get(sessionOAuthNonce).(string)
	session.Delete(sessionOAuthState)
	session.Delete(sessionOAuthNonce)

	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(c.Query("state"))) != 1 {
		page.FlashRedirect(c, middleware.FlashDanger, "Sign-in failed: the request has expired. Please try again.", "/login")
		return
	}
	if errParam := c.Query("error"); errParam != "" {
		logrus.WithField("error", utils.SanitizeLogMessage(errParam)).Warn("OAuth provider returned an error")
		page.FlashRedirect(c, middleware.FlashDanger, "Sign-in was cancelled or denied.", "/login")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), oauthExchangeTimeout)
	defer cancel()

	profile, err := h.oauth.Exchange(ctx, c.Query("code"), nonce)
	if err != nil {
		msg := "Sign-in failed. Please try again."
		if errors.Is(err, oauth.ErrMissingEmail) {
			msg = "Your identity provider did not share a verified email address."
		}
		logrus.WithError(err).Warn("OAuth exchange failed")
		page.FlashRedirect(c, middleware.FlashDanger, msg, "/login")
		return
	}

	user, created, err := h.auth.OAuthLogin(c.Request.Context(), profile)
	if err != nil {
		page.FlashRedirect(c, middleware.FlashDanger, page.MsgSomethingWrong, "/login")
		return
	}

	middleware.Login(c, user)
	if created {
		middleware.AddFlash(c, middleware.FlashSuccess, "Account created successfully. Welcome, "+user.Name+"!")
	}
	page.Redirect(c, "/home")
}
