package middleware

import (
	"time"

	"github.com/eventual-app/eventual/pkg/observability/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records Prometheus metrics per request: a duration histogram, a
// request counter and an in-flight gauge. The route template (FullPath) is
// used as the path label so ids do not explode cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncrementInFlight()
		defer metrics.DecrementInFlight()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPMetrics(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
