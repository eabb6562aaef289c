package middleware

import (
	"time"

	"github.com/eventual-app/eventual/pkg/observability/logger"
	"github.com/gin-gonic/gin"
)

// Logging emits one structured entry per request. Server errors log at error
// level, client errors at warn, everything else at info.
func Logging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.WithContext(c.Request.Context())
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
			"remote_addr", c.ClientIP(),
		}

		switch {
		case status >= 500:
			entry.Error("request completed", fields...)
		case status >= 400:
			entry.Warn("request completed", fields...)
		default:
			entry.Info("request completed", fields...)
		}
	}
}
