package providers

import (
	"github.com/samber/do/v2"

	"github.com/sportmap/sportmap-enricher/internal/config"
	"github.com/sportmap/sportmap-enricher/internal/fetch"
	"github.com/sportmap/sportmap-enricher/internal/logger"
	"github.com/sportmap/sportmap-enricher/internal/places"
)

// FetchClientHandle wraps the page fetcher with shutdown capability.
type FetchClientHandle struct {
	*fetch.Client
}

// Shutdown implements do.Shutdownable.
func (h *FetchClientHandle) Shutdown() error {
	h.Client.Close()
	return nil
}

// ProvideFetchClient provides the shared page fetcher used for price and
// reference pages.
func ProvideFetchClient(i do.Injector) (*FetchClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := fetch.New(cfg.Scrape.Timeout, log.Component("fetch"))
	return &FetchClientHandle{Client: client}, nil
}

// ProvidePlacesClient provides the place lookup client. A missing or
// placeholder key yields a client that reports itself unconfigured.
func ProvidePlacesClient(i do.Injector) (*places.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := places.New(cfg.Places.APIKey, cfg.Places.Timeout, log.Component("places"))
	if client.Configured() {
		log.Info("Place lookups enabled", "budget", cfg.Places.MaxRequests)
	} else {
		log.Warn("Place lookups disabled: PLACES_API_KEY not set, serving cached results only")
	}

	return client, nil
}
