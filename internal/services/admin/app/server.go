// Package app wires the admin console API onto the shared storefront runtime.
package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/louisbranch/storefront/internal/platform/httpx"
	adminapi "github.com/louisbranch/storefront/internal/services/admin/api/http"
	shopapp "github.com/louisbranch/storefront/internal/services/shop/app"
	"go.uber.org/zap"
)

// Config defines the inputs for the admin service.
type Config struct {
	HTTPAddr        string
	Runtime         shopapp.RuntimeConfig
	ShutdownTimeout time.Duration
}

// Server hosts the admin HTTP API.
type Server struct {
	runtime         *shopapp.Runtime
	httpServer      *http.Server
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

// NewServer opens the runtime and builds the HTTP server.
func NewServer(ctx context.Context, cfg Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	runtime, err := shopapp.OpenRuntime(ctx, cfg.Runtime, logger)
	if err != nil {
		return nil, err
	}
	handler, err := adminapi.NewHandler(adminapi.Dependencies{
		Store:  runtime.Store,
		Auth:   runtime.Auth,
		Media:  runtime.Media,
		Policy: runtime.Policy,
		Logger: logger.Named("http"),
	})
	if err != nil {
		_ = runtime.Close()
		return nil, fmt.Errorf("build admin handler: %w", err)
	}
	return &Server{
		runtime:         runtime,
		httpServer:      httpx.NewServer(cfg.HTTPAddr, handler),
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve runs the API until ctx ends. A nil listener listens on the configured
// address.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	return httpx.Serve(ctx, s.httpServer, listener, s.shutdownTimeout, s.logger)
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil || s.runtime == nil {
		return
	}
	if err := s.runtime.Close(); err != nil {
		s.logger.Warn("close storage", zap.Error(err))
	}
}

// Run creates and serves the admin API until ctx ends.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	server, err := NewServer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init admin server: %w", err)
	}
	defer server.Close()
	return server.Serve(ctx, nil)
}
