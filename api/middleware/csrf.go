package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/anoixa/photo-album/utils"
)

const (
	CSRFFormField    = "csrf_token"
	CSRFHeader       = "X-CSRF-Token"
	sessionCSRFToken = "csrf_token"
)

// CSRFToken returns the session's token, creating one if needed.
// The caller saves the session.
func CSRFToken(c *gin.Context) string {
	session := sessions.Default(c)
	if token, ok := session.Get(sessionCSRFToken).(string); ok && token != "" {
		return token
	}

	token, err := utils.GenerateRandomToken(32)
	if err != nil {
		panic(err)
	}
	session.Set(sessionCSRFToken, token)
	return token
}

// CSRF checks the token on state-changing requests. onFail renders the
// rejection and defaults to a bare 400.
func CSRF(onFail gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		expected, _ := sessions.Default(c).Get(sessionCSRFToken).(string)
		got := c.GetHeader(CSRFHeader)
		if got == "" {
			got = c.PostForm(CSRFFormField)
		}

		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
			if onFail != nil {
				onFail(c)
			} else {
				c.String(http.StatusBadRequest, "invalid CSRF token")
			}
			c.Abort()
			return
		}
		c.Next()
	}
}
