package server

import (
	"net/http"

	"github.com/eventual-app/eventual/pkg/config"
	"github.com/eventual-app/eventual/pkg/health"
	"github.com/eventual-app/eventual/pkg/locator"
	"github.com/eventual-app/eventual/pkg/middleware"
	"github.com/eventual-app/eventual/pkg/observability/logger"
	"github.com/eventual-app/eventual/pkg/observability/metrics"
	"github.com/eventual-app/eventual/pkg/version"
	"github.com/gin-gonic/gin"
)

// ManagementServer serves the operational endpoints on a separate port:
// /health for liveness, /ready for readiness, /metrics for Prometheus
// scrapes and /version for build metadata.
type ManagementServer struct {
	*Server
	engine *gin.Engine
}

// NewManagementServer builds the management engine. It carries a lighter
// middleware chain than the public server.
func NewManagementServer(
	cfg *config.Config,
	log logger.Logger,
	healthRegistry *health.Registry,
	metricsRegistry *metrics.Registry,
) *ManagementServer {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	engine.GET("/ready", func(c *gin.Context) {
		result := healthRegistry.Check(c.Request.Context())
		status := http.StatusOK
		if !result.Healthy() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	})

	if metricsRegistry != nil {
		handler := metricsRegistry.Handler()
		engine.GET("/metrics", func(c *gin.Context) {
			handler.ServeHTTP(c.Writer, c.Request)
		})
	}

	info := version.Current(cfg.Service.Name)
	engine.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, info)
	})

	// Peer service table, useful when debugging cross-service links.
	endpoints := make(map[string]locator.Endpoint, len(cfg.Services))
	for name, ep := range cfg.Services {
		endpoints[name] = locator.Endpoint{Host: ep.Host, Port: ep.Port}
	}
	services := locator.New(endpoints)
	engine.GET("/services", func(c *gin.Context) {
		table := make(map[string]string)
		for _, name := range services.Services() {
			base, err := services.BaseURL(name)
			if err != nil {
				continue
			}
			table[name] = base
		}
		c.JSON(http.StatusOK, gin.H{"services": table})
	})

	return &ManagementServer{
		Server: New(Config{Port: cfg.Management.Port}, engine, log),
		engine: engine,
	}
}

// Engine exposes the underlying gin engine, mainly for tests.
func (s *ManagementServer) Engine() *gin.Engine {
	return s.engine
}
