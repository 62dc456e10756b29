// Package main provides the entry point for the enrichment HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/sportmap/sportmap-enricher/internal/di"
	"github.com/sportmap/sportmap-enricher/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create DI container
	injector := di.NewContainer(ctx)

	// Bootstrap all services and start listening
	if err := di.BootstrapServer(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		_ = injector.Shutdown()
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	<-ctx.Done()
	stop()

	log.Info("Shutting down server gracefully...")

	// The container stops the HTTP server first, then saves and closes the cache.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	log.Info("Server stopped")
}
