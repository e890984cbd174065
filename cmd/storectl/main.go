// Package main is the storefront operator CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/storefront/internal/cmd/storectl"
	entrypoint "github.com/louisbranch/storefront/internal/platform/cmd"
)

func main() {
	logger, err := entrypoint.NewLogger(entrypoint.ServiceStoreCtl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storectl: init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := storectl.Execute(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "storectl: %v\n", err)
		os.Exit(1)
	}
}
