package middleware_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eventual-app/eventual/pkg/middleware"
	"github.com/eventual-app/eventual/pkg/observability/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, err := logger.NewZapLogger(logger.Config{Level: logger.ErrorLevel, Format: logger.JSONFormat})
	require.NoError(t, err)
	return log
}

func TestRequestIDGenerated(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.RequestID())

	var fromCtx string
	engine.GET("/", func(c *gin.Context) {
		fromCtx = logger.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	echoed := w.Header().Get(middleware.RequestIDHeader)
	assert.NotEmpty(t, echoed)
	assert.Equal(t, echoed, fromCtx)
}

func TestRequestIDPreserved(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.Recovery(testLogger(t)))
	engine.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	engine.OPTIONS("/things", func(c *gin.Context) {
		c.Header("Allow", "GET, OPTIONS")
		c.Status(http.StatusOK)
	})

	// Genuine preflight: short-circuited with 204 before the route handler.
	req := httptest.NewRequest(http.MethodOptions, "/things", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Total-Count")

	// A plain OPTIONS request reaches its registered handler.
	req = httptest.NewRequest(http.MethodOptions, "/things", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GET, OPTIONS", w.Header().Get("Allow"))
}

func TestCORSRestrictedOrigins(t *testing.T) {
	cfg := middleware.DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://app.example.com"}

	engine := gin.New()
	engine.Use(middleware.CORS(cfg))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestGzipThreshold(t *testing.T) {
	small := strings.Repeat("a", middleware.GzipMinSize-1)
	large := strings.Repeat("b", middleware.GzipMinSize*4)

	engine := gin.New()
	engine.Use(middleware.Gzip())
	engine.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, small) })
	engine.GET("/large", func(c *gin.Context) { c.String(http.StatusOK, large) })

	req := httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, small, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/large", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	gr, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	decompressed, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Equal(t, large, string(decompressed))
}

func TestGzipSkippedWithoutAcceptEncoding(t *testing.T) {
	large := strings.Repeat("c", middleware.GzipMinSize*2)

	engine := gin.New()
	engine.Use(middleware.Gzip())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, large) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, large, w.Body.String())
}

func TestRateLimitRejectsBeyondBurst(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 1,
		Burst:             2,
	}))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.RateLimit(middleware.RateLimitConfig{Enabled: false}))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}
