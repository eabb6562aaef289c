package server

import (
	"github.com/eventual-app/eventual/pkg/config"
	"github.com/eventual-app/eventual/pkg/middleware"
	"github.com/eventual-app/eventual/pkg/observability/logger"
	"github.com/gin-gonic/gin"
)

// Controller mounts a resource's routes on the versioned API group.
type Controller interface {
	Register(r gin.IRouter)
}

// PublicAPIServer carries application traffic under /api/v1.
type PublicAPIServer struct {
	*Server
	engine *gin.Engine
}

// NewPublicAPIServer builds the public engine with the standard middleware
// chain and mounts every controller under /api/v1.
func NewPublicAPIServer(cfg *config.Config, log logger.Logger, controllers ...Controller) *PublicAPIServer {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.RedirectTrailingSlash = false

	engine.Use(
		middleware.RequestID(),
		middleware.Logging(log),
		middleware.Recovery(log),
	)
	if cfg.Observability.MetricsEnabled {
		engine.Use(middleware.Metrics())
	}
	if cfg.CORS.Enabled {
		engine.Use(middleware.CORS(middleware.CORSConfig{
			AllowOrigins:  cfg.CORS.AllowOrigins,
			AllowMethods:  cfg.CORS.AllowMethods,
			AllowHeaders:  cfg.CORS.AllowHeaders,
			ExposeHeaders: cfg.CORS.ExposeHeaders,
		}))
	}
	engine.Use(
		middleware.Gzip(),
		middleware.Timeout(middleware.TimeoutConfig{Default: cfg.HTTP.RequestTimeout}),
		middleware.RateLimit(middleware.RateLimitConfig{
			Enabled:           cfg.RateLimit.Enabled,
			RequestsPerSecond: int(cfg.RateLimit.RequestsPerSecond),
			Burst:             cfg.RateLimit.Burst,
		}),
	)

	api := engine.Group("/api/v1")
	for _, ctrl := range controllers {
		ctrl.Register(api)
	}

	return &PublicAPIServer{
		Server: New(Config{
			Port:         cfg.HTTP.Port,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		}, engine, log),
		engine: engine,
	}
}

// Engine exposes the underlying gin engine, mainly for tests.
func (s *PublicAPIServer) Engine() *gin.Engine {
	return s.engine
}
