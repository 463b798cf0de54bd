package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/viefmoon/rawstream/internal/config"
	"github.com/viefmoon/rawstream/internal/ingestion"
)

// StatsProvider is the slice of the stream session the API needs.
type StatsProvider interface {
	Stats() ingestion.Stats
}

// Server exposes the read-only HTTP API: session statistics, health, and
// build info. Prometheus metrics are served separately on the metrics port.
type Server struct {
	config     *config.APIConfig
	router     *mux.Router
	httpServer *http.Server
	logger     *logrus.Logger
	stats      StatsProvider
}

// New creates a new API server instance.
func New(cfg *config.APIConfig, log *logrus.Logger, stats StatsProvider) *Server {
	s := &Server{
		config: cfg,
		router: mux.NewRouter(),
		logger: log,
		stats:  stats,
	}
	s.setupRoutes()
	return s
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.logger.WithField("addr", s.config.Addr).Info("Starting API server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down API server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// GetRouter returns the router for testing.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}
