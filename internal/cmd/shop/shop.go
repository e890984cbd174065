// Package shop parses shop command flags and starts the storefront API.
package shop

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/storefront/internal/platform/cmd"
	server "github.com/louisbranch/storefront/internal/services/shop/app"
	"go.uber.org/zap"
)

// Config holds shop command configuration.
type Config struct {
	HTTPAddr string `env:"STOREFRONT_SHOP_HTTP_ADDR" envDefault:":8080"`
	Runtime  server.RuntimeConfig
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	runtime, err := server.LoadRuntimeConfigFromEnv()
	if err != nil {
		return Config{}, err
	}
	cfg.Runtime = runtime

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "shop HTTP listen address")
	fs.StringVar(&cfg.Runtime.DBPath, "db-path", cfg.Runtime.DBPath, "SQLite database path")
	fs.StringVar(&cfg.Runtime.Media.Dir, "media-dir", cfg.Runtime.Media.Dir, "local media directory")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the shop API and blocks until ctx ends.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceShop, logger, func(ctx context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr: cfg.HTTPAddr,
			Runtime:  cfg.Runtime,
		}, logger); err != nil {
			return fmt.Errorf("serve shop: %w", err)
		}
		return nil
	})
}
