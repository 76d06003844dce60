package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fitpulse/fitpulse-api/internal/logging"
)

// Server wraps http.Server with graceful shutdown
type Server struct {
	httpServer *http.Server
	logger     *logging.Logger
}

func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration, logger *logging.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		logger: logger,
	}
}

// Start listens and serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("api listening", "addr", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown drains in-flight requests up to the context deadline
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("draining connections")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
