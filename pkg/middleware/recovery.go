package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/eventual-app/eventual/pkg/observability/logger"
	"github.com/gin-gonic/gin"
)

// Recovery converts handler panics into a generic 500 response. The panic
// value and stack are logged; neither reaches the client.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithContext(c.Request.Context()).Error("panic recovered",
					"panic", rec,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"detail": "internal server error",
				})
			}
		}()
		c.Next()
	}
}
