package providers

import (
	"github.com/samber/do/v2"

	"github.com/sportmap/sportmap-enricher/internal/catalog"
	"github.com/sportmap/sportmap-enricher/internal/config"
	"github.com/sportmap/sportmap-enricher/internal/enrich"
	"github.com/sportmap/sportmap-enricher/internal/logger"
	"github.com/sportmap/sportmap-enricher/internal/pipeline"
	"github.com/sportmap/sportmap-enricher/internal/price"
)

// ProvideScraper provides the chain price scraper.
func ProvideScraper(i do.Injector) (*price.Scraper, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	fetchHandle := do.MustInvoke[*FetchClientHandle](i)

	return price.NewScraper(fetchHandle.Client, nil, cfg.Scrape.Delay, log.Component("price")), nil
}

// ProvideRunContext scrapes chain prices and loads the reference listing
// once for the lifetime of the process. A stop signal cuts the scraping short;
// whatever was not fetched stays empty.
func ProvideRunContext(i do.Injector) (*pipeline.RunContext, error) {
	startup := do.MustInvoke[StartupContext](i)
	log := do.MustInvoke[*logger.Logger](i)
	cat := do.MustInvoke[*catalog.Catalog](i)
	scraper := do.MustInvoke[*price.Scraper](i)
	fetchHandle := do.MustInvoke[*FetchClientHandle](i)

	return pipeline.PrepareContext(startup, cat, scraper, fetchHandle.Client, log.Component("reference")), nil
}

// ProvideEnricher provides the record enricher backed by the cache.
func ProvideEnricher(i do.Injector) (*enrich.Enricher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	cat := do.MustInvoke[*catalog.Catalog](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)

	return enrich.New(cat, cacheHandle.Cache, enrich.Options{
		HoursIfMissing: cfg.Enrich.HoursIfMissing,
		LinksIfMissing: cfg.Enrich.LinksIfMissing,
	}, log.Component("enrich")), nil
}

// ProvideRunner provides the batch pipeline runner.
func ProvideRunner(i do.Injector) (*pipeline.Runner, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	enricher := do.MustInvoke[*enrich.Enricher](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	run := do.MustInvoke[*pipeline.RunContext](i)

	return pipeline.NewRunner(enricher, cacheHandle.Cache, run, pipeline.Options{
		RecordLimit:     cfg.Enrich.RecordLimit,
		CheckpointEvery: cfg.Enrich.CheckpointEvery,
	}, log.Component("pipeline")), nil
}
