// Package enrich derives the render-ready view of a facility record: display
// text, links, opening hours, chain pricing and municipal rental eligibility.
package enrich

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sportmap/sportmap-enricher/internal/cache"
	"github.com/sportmap/sportmap-enricher/internal/catalog"
	"github.com/sportmap/sportmap-enricher/internal/domain"
	"github.com/sportmap/sportmap-enricher/internal/links"
	"github.com/sportmap/sportmap-enricher/internal/price"
	"github.com/sportmap/sportmap-enricher/internal/reference"
)

// UnknownTitle is shown when a record has no name, sport or leisure value.
const UnknownTitle = "Onbekende locatie"

const subtitleSeparator = " • "

// Lookuper is the cache-backed place lookup.
type Lookuper interface {
	Lookup(ctx context.Context, title, city string) cache.Result
}

// Options selects when the place lookup is consulted.
type Options struct {
	HoursIfMissing bool
	LinksIfMissing bool
}

// Enricher turns records into views. It is not safe for concurrent use;
// callers process one record at a time.
type Enricher struct {
	catalog *catalog.Catalog
	lookup  Lookuper
	opts    Options
	logger  *slog.Logger
}

// New creates an Enricher. A nil lookup disables place lookups.
func New(cat *catalog.Catalog, lookup Lookuper, opts Options, logger *slog.Logger) *Enricher {
	return &Enricher{
		catalog: cat,
		lookup:  lookup,
		opts:    opts,
		logger:  logger,
	}
}

// Enrich derives the view for rec. Chain prices and the reference set are
// built once per run by the caller and only read here.
func (e *Enricher) Enrich(ctx context.Context, rec domain.Record, prices price.ChainPrices, ref *reference.Set) View {
	title := Title(rec)
	city := rec.Get(domain.FieldCity)

	v := View{
		ID:           rec.ID(),
		Title:        title,
		Subtitle:     Subtitle(rec),
		AddressLine1: joinNonEmpty(" ", rec.Get(domain.FieldStreet), rec.Get(domain.FieldHouseNumber)),
		AddressLine2: joinNonEmpty(" ", rec.Get(domain.FieldPostcode), city),
		City:         city,
		Enrichment:   Enrichment{Status: cache.StatusNotAttempted.String()},
	}
	if lat, lon, ok := rec.Coordinates(); ok {
		v.Lat, v.Lon = lat, lon
	}

	recordHours := rec.Get(domain.FieldOpeningHours)
	if recordHours != "" {
		v.OpeningHours = recordHours
		v.HoursSource = HoursFromRecord
	}

	linkSet := links.Extract(rec, e.catalog.Links.Fields)

	v.Enrichment.NeedHours = e.opts.HoursIfMissing && recordHours == ""
	v.Enrichment.NeedLinks = e.opts.LinksIfMissing && linkSet.Len() == 0

	if (v.Enrichment.NeedHours || v.Enrichment.NeedLinks) && city != "" && e.lookup != nil {
		r := e.lookup.Lookup(ctx, title, city)
		v.Enrichment.Status = r.Status.String()
		v.Enrichment.Reason = string(r.Reason)
		e.logger.Debug("place lookup",
			"title", title,
			"city", city,
			"status", v.Enrichment.Status,
		)

		if v.Enrichment.NeedHours && r.OpeningHours != "" {
			v.OpeningHours = r.OpeningHours
			v.HoursSource = HoursFromPlaces
		}
		if v.Enrichment.NeedLinks {
			linkSet.Add(LabelPlacesWebsite, links.EnsureHTTP(r.Website))
			linkSet.Add(LabelPlacesMaps, strings.TrimSpace(r.MapsURL))
		}
	}

	entries := linkSet.Entries()
	if limit := e.catalog.Links.DisplayLimit; limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	v.Links = entries

	v.Chain = price.MatchChain(rec.Get(domain.FieldName), rec.Get(domain.FieldBrand), e.catalog.Chains)
	v.ChainPrice = prices.Get(v.Chain)

	refCfg := e.catalog.Reference
	if refCfg.IsMunicipality(city) && ref.IsEligible(title) {
		v.Rentable = true
		v.Rental = &Rental{
			Provider:   refCfg.Name,
			PriceText:  refCfg.PriceText,
			InfoURL:    refCfg.InfoURL,
			BookingURL: refCfg.BookingURL,
		}
	}

	return v
}

// Title returns the display title: the name, else the sport, else the leisure
// type, else UnknownTitle.
func Title(rec domain.Record) string {
	if name := rec.Get(domain.FieldName); name != "" {
		return name
	}
	if sport := rec.Get(domain.FieldSport); sport != "" {
		return titleCase(sport)
	}
	if leisure := rec.Get(domain.FieldLeisure); leisure != "" {
		return titleCase(leisure)
	}
	return UnknownTitle
}

// Subtitle joins the title-cased sport and leisure values.
func Subtitle(rec domain.Record) string {
	var parts []string
	for _, field := range []string{domain.FieldSport, domain.FieldLeisure} {
		if v := rec.Get(field); v != "" {
			parts = append(parts, titleCase(v))
		}
	}
	return strings.Join(parts, subtitleSeparator)
}

// titleCase turns an OSM tag value such as "sports_centre" into "Sports Centre".
func titleCase(s string) string {
	return cases.Title(language.Dutch).String(strings.ReplaceAll(s, "_", " "))
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
