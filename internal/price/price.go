// Package price scrapes advertised membership prices from fitness chain
// websites and matches facility records to those chains.
//
// Scraping is best effort: every failure collapses to an empty price and is
// never returned to the caller.
package price

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sportmap/sportmap-enricher/internal/catalog"
	"github.com/sportmap/sportmap-enricher/internal/fetch"
	"github.com/sportmap/sportmap-enricher/internal/htmltext"
	"github.com/sportmap/sportmap-enricher/internal/ratelimit"
)

// DefaultDelay is the pause between candidate pages of the same chain.
const DefaultDelay = 700 * time.Millisecond

// ChainPrices maps a chain name to its scraped price ("" when not found).
type ChainPrices map[string]string

// Get returns the price for chain, or "" for unknown chains.
func (p ChainPrices) Get(chain string) string {
	if chain == "" {
		return ""
	}
	return p[chain]
}

// Found returns how many chains have a non-empty price.
func (p ChainPrices) Found() int {
	n := 0
	for _, v := range p {
		if v != "" {
			n++
		}
	}
	return n
}

// Scraper fetches candidate pages and extracts a price from them.
type Scraper struct {
	getter    fetch.Getter
	extractor Extractor
	delay     time.Duration
	sleep     func(context.Context, time.Duration) error
	logger    *slog.Logger
}

// NewScraper creates a scraper. A nil extractor selects DefaultExtractor and a
// negative delay selects DefaultDelay.
func NewScraper(getter fetch.Getter, extractor Extractor, delay time.Duration, logger *slog.Logger) *Scraper {
	if extractor == nil {
		extractor = DefaultExtractor()
	}
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Scraper{
		getter:    getter,
		extractor: extractor,
		delay:     delay,
		sleep:     ratelimit.Sleep,
		logger:    logger,
	}
}

// ScrapePrice fetches url and returns the first price found, or "".
// The raw body is searched first; if that fails, the page's visible text is
// searched, which catches prices split by markup or written with entities.
func (s *Scraper) ScrapePrice(ctx context.Context, url string) string {
	body, err := s.getter.Get(ctx, url)
	if err != nil {
		s.logger.Debug("price page unavailable", "url", url, "error", err)
		return ""
	}

	page := string(body)
	if found := s.extractor.Extract(page); found != "" {
		return found
	}
	return s.extractor.Extract(htmltext.Visible(page))
}

// ChainPrices tries each chain's candidate pages in order and keeps the first
// non-empty price. Consecutive candidates of a chain are separated by the
// scraper's fixed delay. Chains with no price map to "".
func (s *Scraper) ChainPrices(ctx context.Context, chains []catalog.Chain) ChainPrices {
	prices := make(ChainPrices, len(chains))

	for _, chain := range chains {
		prices[chain.Name] = ""
		if ctx.Err() != nil {
			continue
		}

		for i, url := range chain.PriceURLs {
			if i > 0 {
				if err := s.sleep(ctx, s.delay); err != nil {
					break
				}
			}
			if found := s.ScrapePrice(ctx, url); found != "" {
				prices[chain.Name] = found
				break
			}
		}

		s.logger.Debug("chain price",
			"chain", chain.Name,
			"price", prices[chain.Name],
		)
	}

	return prices
}

// MatchChain returns the first chain whose keyword occurs in the lowercased
// name or brand, or "" when none does. Chains are checked in catalog order.
func MatchChain(name, brand string, chains []catalog.Chain) string {
	name = strings.ToLower(name)
	brand = strings.ToLower(brand)

	for _, chain := range chains {
		for _, kw := range chain.Keywords {
			kw = strings.ToLower(kw)
			if strings.Contains(name, kw) || strings.Contains(brand, kw) {
				return chain.Name
			}
		}
	}
	return ""
}
