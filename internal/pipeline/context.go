package pipeline

import (
	"context"
	"log/slog"

	"github.com/sportmap/sportmap-enricher/internal/catalog"
	"github.com/sportmap/sportmap-enricher/internal/fetch"
	"github.com/sportmap/sportmap-enricher/internal/price"
	"github.com/sportmap/sportmap-enricher/internal/reference"
)

// RunContext holds the per-run lookups that are built once and then only
// read while records are enriched.
type RunContext struct {
	Prices    price.ChainPrices
	Reference *reference.Set
}

// PrepareContext scrapes chain prices and loads the reference listing.
// Both steps degrade to empty results on failure.
func PrepareContext(ctx context.Context, cat *catalog.Catalog, scraper *price.Scraper, getter fetch.Getter, logger *slog.Logger) *RunContext {
	prices := scraper.ChainPrices(ctx, cat.Chains)
	ref := reference.Build(ctx, getter, cat.Reference.ListingURL, cat.Reference.Prefixes, logger)

	logger.Info("run context ready",
		"chains", len(cat.Chains),
		"chain_prices", prices.Found(),
		"reference_venues", ref.Len(),
	)

	return &RunContext{Prices: prices, Reference: ref}
}
