package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client token-bucket rate limiting.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond int
	Burst             int
}

// DefaultRateLimitConfig allows 50 req/s with a burst of 100 per client IP.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Enabled: false, RequestsPerSecond: 50, Burst: 100}
}

// TokenBucketLimiter keeps one rate.Limiter per key. Thread safe.
type TokenBucketLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
}

// NewTokenBucketLimiter creates a limiter allowing requestsPerSecond on
// average with bursts up to burst.
func NewTokenBucketLimiter(requestsPerSecond, burst int) *TokenBucketLimiter {
	return &TokenBucketLimiter{rate: rate.Limit(requestsPerSecond), burst: burst}
}

// Allow reports whether a request for key fits within its bucket.
func (l *TokenBucketLimiter) Allow(key string) bool {
	limiter, ok := l.limiters.Load(key)
	if !ok {
		limiter, _ = l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	}
	return limiter.(*rate.Limiter).Allow()
}

// RateLimit rejects clients that exceed their bucket with 429.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := NewTokenBucketLimiter(cfg.RequestsPerSecond, cfg.Burst)
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
