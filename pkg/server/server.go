// Package server provides the HTTP servers with graceful startup and
// shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/eventual-app/eventual/pkg/observability/logger"
)

// Config holds the timeouts and listen port of one HTTP server.
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server wraps http.Server with graceful lifecycle management.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     logger.Logger
	config     Config
}

// New creates a server for the given handler.
func New(cfg Config, handler http.Handler, log logger.Logger) *Server {
	return &Server{handler: handler, logger: log, config: cfg}
}

// Start listens for requests until ctx is cancelled, then shuts down
// gracefully. It returns early if the listener fails to start.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.logger.Info("starting server", "port", s.config.Port)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown stops accepting connections and waits up to 30 seconds for
// in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server", "addr", s.httpServer.Addr)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server shutdown complete", "addr", s.httpServer.Addr)
	return nil
}
