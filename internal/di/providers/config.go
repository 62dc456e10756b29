// Package providers contains dependency injection providers for the enricher.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/sportmap/sportmap-enricher/internal/catalog"
	"github.com/sportmap/sportmap-enricher/internal/config"
	"github.com/sportmap/sportmap-enricher/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger. It writes to stderr so the
// batch output on stdout stays machine-readable.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting SportMap enricher",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
		"cache_backend", cfg.Data.CacheBackend,
	)

	return log, nil
}

// ProvideCatalog provides the chain, reference and link catalog.
func ProvideCatalog(i do.Injector) (*catalog.Catalog, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cat, err := catalog.Load(cfg.Data.CatalogFile)
	if err != nil {
		return nil, err
	}

	source := cfg.Data.CatalogFile
	if source == "" {
		source = "built-in"
	}
	log.Info("Catalog loaded",
		"source", source,
		"chains", len(cat.Chains),
		"reference", cat.Reference.Name,
	)

	return cat, nil
}
