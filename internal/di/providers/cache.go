package providers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/sportmap/sportmap-enricher/internal/cache"
	"github.com/sportmap/sportmap-enricher/internal/cache/badgerstore"
	"github.com/sportmap/sportmap-enricher/internal/cache/filestore"
	"github.com/sportmap/sportmap-enricher/internal/cache/sqlitestore"
	"github.com/sportmap/sportmap-enricher/internal/config"
	"github.com/sportmap/sportmap-enricher/internal/logger"
	"github.com/sportmap/sportmap-enricher/internal/places"
)

// CacheHandle wraps the enrichment cache. Shutdown saves pending entries and
// closes the backend.
type CacheHandle struct {
	*cache.Cache
	logger *slog.Logger
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var saveErr error
	if pending := h.Dirty(); pending > 0 {
		saveErr = h.Save(ctx)
		if saveErr == nil {
			h.logger.Info("Cache saved", "entries", pending)
		}
	}
	return errors.Join(saveErr, h.Close())
}

// ProvideCache provides the enrichment cache on the configured backend.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*places.Client](i)

	cacheLog := log.Component("cache")
	backend, err := openBackend(cfg, cacheLog)
	if err != nil {
		return nil, err
	}

	c := cache.Load(context.Background(), backend, client, cache.Options{
		Budget: cfg.Places.MaxRequests,
		Delay:  cfg.Places.Delay,
		Logger: cacheLog,
	})

	stats := c.Stats()
	log.Info("Cache loaded",
		"backend", cfg.Data.CacheBackend,
		"path", cfg.CachePath(),
		"entries", stats.Entries,
		"requests_made", stats.RequestsMade,
		"remaining", stats.Remaining,
	)

	return &CacheHandle{Cache: c, logger: cacheLog}, nil
}

func openBackend(cfg *config.Config, logger *slog.Logger) (cache.Backend, error) {
	path := cfg.CachePath()
	switch cfg.Data.CacheBackend {
	case config.BackendBadger:
		return badgerstore.OpenOrReset(path, logger)
	case config.BackendSQLite:
		return sqlitestore.OpenOrReset(path, logger)
	default:
		return filestore.New(path), nil
	}
}
