package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/timeouts"
	httpapi "github.com/louisbranch/storefront/internal/services/shop/api/http"
	"go.uber.org/zap"
)

// Config defines the inputs for the shop service.
type Config struct {
	HTTPAddr        string
	Runtime         RuntimeConfig
	CleanupInterval time.Duration
	ShutdownTimeout time.Duration
}

// Server hosts the shop HTTP API.
type Server struct {
	runtime         *Runtime
	httpServer      *http.Server
	logger          *zap.Logger
	cleanupInterval time.Duration
	shutdownTimeout time.Duration
}

// NewServer opens the runtime and builds the HTTP server.
func NewServer(ctx context.Context, cfg Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	runtime, err := OpenRuntime(ctx, cfg.Runtime, logger)
	if err != nil {
		return nil, err
	}
	handler, err := httpapi.NewHandler(httpapi.Dependencies{
		Store:  runtime.Store,
		Auth:   runtime.Auth,
		Media:  runtime.Media,
		Policy: runtime.Policy,
		Logger: logger.Named("http"),
	})
	if err != nil {
		_ = runtime.Close()
		return nil, fmt.Errorf("build shop handler: %w", err)
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = timeouts.CleanupInterval
	}
	return &Server{
		runtime:         runtime,
		httpServer:      httpx.NewServer(cfg.HTTPAddr, handler),
		logger:          logger,
		cleanupInterval: cfg.CleanupInterval,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve runs the API and the expiry sweeper until ctx ends. A nil listener
// listens on the configured address.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.runtime.Auth.StartCleanup(serverCtx, s.cleanupInterval)
	return httpx.Serve(serverCtx, s.httpServer, listener, s.shutdownTimeout, s.logger)
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

// Run creates and serves the shop API until ctx ends.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	server, err := NewServer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init shop server: %w", err)
	}
	defer server.Close()
	return server.Serve(ctx, nil)
}
