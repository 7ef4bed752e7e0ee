package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// flash categories, matching the alert classes used by the templates
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

var flashCategories = []string{FlashSuccess, FlashInfo, FlashWarning, FlashDanger}

// Flash one-shot message shown on the next rendered page
type Flash struct {
	Category string
	Message  string
}

// AddFlash queues a message. The caller saves the session.
func AddFlash(c *gin.Context, category, message string) {
	sessions.Default(c).AddFlash(message, category)
}

// Flashes pops all queued messages. The caller saves the session.
func Flashes(c *gin.Context) []Flash {
	session := sessions.Default(c)
	var out []Flash
	for _, category := range flashCategories {
		for _, v := range session.Flashes(category) {
			if msg, ok := v.(string); ok {
				out = append(out, Flash{Category: category, Message: msg})
			}
		}
	}
	return out
}
