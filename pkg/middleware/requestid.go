// Package middleware provides the gin middleware chain for the service:
// request identification, request logging, panic recovery, CORS, gzip
// compression, per-request timeouts, rate limiting, and Prometheus metrics.
package middleware

import (
	"github.com/eventual-app/eventual/pkg/observability/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the HTTP header carrying the request id.
const RequestIDHeader = "X-Request-ID"

// RequestID preserves an incoming X-Request-ID or generates a UUID, echoes it
// on the response, and stores it in the request context for loggers and error
// responses.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Header(RequestIDHeader, id)
		ctx := logger.ContextWithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
