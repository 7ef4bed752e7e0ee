package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBytesReader caps request bodies at limit bytes.
func MaxBytesReader(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
