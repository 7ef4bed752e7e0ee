package middleware

import (
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	requestCount    atomic.Int64
	requestDuration atomic.Int64 // milliseconds
)

// RequestLogger logs one line per request and updates the counters
// reported by /health.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		requestCount.Add(1)
		requestDuration.Add(latency.Milliseconds())

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": latency.String(),
			"ip":      c.ClientIP(),
		}
		if user := CurrentUser(c); user != nil {
			fields["user_id"] = user.ID
		}

		entry := logrus.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Debug("request")
		}
	}
}

// GetMetrics 获取当前指标
func GetMetrics() map[string]interface{} {
	count := requestCount.Load()
	total := requestDuration.Load()
	avg := 0.0
	if count > 0 {
		avg = float64(total) / float64(count)
	}
	return map[string]interface{}{
		"request_count":       count,
		"request_duration_ms": total,
		"avg_duration_ms":     avg,
	}
}
