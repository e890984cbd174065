// Package main starts the storefront JSON API and handles termination.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	shopcmd "github.com/louisbranch/storefront/internal/cmd/shop"
	entrypoint "github.com/louisbranch/storefront/internal/platform/cmd"
	"go.uber.org/zap"
)

func main() {
	cfg, err := shopcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	logger, err := entrypoint.NewLogger(entrypoint.ServiceShop)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := shopcmd.Run(ctx, cfg, logger); err != nil {
		logger.Fatal("failed to serve", zap.Error(err))
	}
}
