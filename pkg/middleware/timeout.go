package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// TimeoutConfig configures the per-request deadline.
type TimeoutConfig struct {
	Default time.Duration
	// ExcludedPathPrefixes lists paths that keep an unbounded context,
	// such as media uploads.
	ExcludedPathPrefixes []string
}

// DefaultTimeoutConfig bounds every request at 15 seconds.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{Default: 15 * time.Second}
}

// Timeout attaches a deadline to the request context. Handlers and the store
// adapter observe cancellation through the context; the middleware itself
// does not write a response.
func Timeout(cfg TimeoutConfig) gin.HandlerFunc {
	if cfg.Default <= 0 {
		cfg.Default = DefaultTimeoutConfig().Default
	}
	return func(c *gin.Context) {
		for _, prefix := range cfg.ExcludedPathPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Default)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
