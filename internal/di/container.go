// Package di provides dependency injection configuration for the enricher.
package di

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/sportmap/sportmap-enricher/internal/catalog"
	"github.com/sportmap/sportmap-enricher/internal/config"
	"github.com/sportmap/sportmap-enricher/internal/di/providers"
	"github.com/sportmap/sportmap-enricher/internal/enrich"
	"github.com/sportmap/sportmap-enricher/internal/logger"
	"github.com/sportmap/sportmap-enricher/internal/pipeline"
)

// NewContainer creates and configures the DI container with all providers.
// ctx bounds the network work done while bootstrapping; binaries cancel it
// on SIGINT/SIGTERM.
func NewContainer(ctx context.Context) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, providers.StartupContext{Context: ctx})

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideCatalog)

	// Outbound clients
	do.Provide(injector, providers.ProvideFetchClient)
	do.Provide(injector, providers.ProvidePlacesClient)

	// Cache layer
	do.Provide(injector, providers.ProvideCache)

	// Enrichment
	do.Provide(injector, providers.ProvideScraper)
	do.Provide(injector, providers.ProvideRunContext)
	do.Provide(injector, providers.ProvideEnricher)
	do.Provide(injector, providers.ProvideRunner)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes the services shared by every binary: configuration,
// logging, the catalog, the cache and the per-run context.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*catalog.Catalog](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CacheHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*pipeline.RunContext](injector)
	_ = do.MustInvoke[*enrich.Enricher](injector)

	return nil
}

// BootstrapServer initializes the shared services and starts the HTTP server.
func BootstrapServer(injector *do.RootScope) error {
	if err := Bootstrap(injector); err != nil {
		return err
	}
	if err := do.MustInvoke[providers.StartupContext](injector).Err(); err != nil {
		return err
	}
	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
