package enrich

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportmap/sportmap-enricher/internal/cache"
	"github.com/sportmap/sportmap-enricher/internal/catalog"
	"github.com/sportmap/sportmap-enricher/internal/domain"
	"github.com/sportmap/sportmap-enricher/internal/links"
	"github.com/sportmap/sportmap-enricher/internal/price"
	"github.com/sportmap/sportmap-enricher/internal/reference"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubLookup struct {
	result cache.Result
	calls  []string
}

func (s *stubLookup) Lookup(_ context.Context, title, city string) cache.Result {
	s.calls = append(s.calls, title+"|"+city)
	return s.result
}

func newTestEnricher(t *testing.T, lookup Lookuper, opts Options) *Enricher {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return New(cat, lookup, opts, testLogger())
}

var bothPolicies = Options{HoursIfMissing: true, LinksIfMissing: true}

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		rec  domain.Record
		want string
	}{
		{"name wins", domain.Record{"name": "Sporthal Zuid", "sport": "basketball"}, "Sporthal Zuid"},
		{"sport fallback", domain.Record{"sport": "basketball", "leisure": "sports_centre"}, "Basketball"},
		{"leisure fallback", domain.Record{"leisure": "sports_centre"}, "Sports Centre"},
		{"nan is empty", domain.Record{"name": "nan", "leisure": "pitch"}, "Pitch"},
		{"unknown", domain.Record{}, UnknownTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.rec))
		})
	}
}

func TestSubtitle(t *testing.T) {
	assert.Equal(t, "Tennis • Sports Centre", Subtitle(domain.Record{"sport": "tennis", "leisure": "sports_centre"}))
	assert.Equal(t, "Fitness Centre", Subtitle(domain.Record{"leisure": "fitness_centre"}))
	assert.Equal(t, "", Subtitle(domain.Record{"name": "X"}))
}

func TestEnricher_Enrich_DerivedFields(t *testing.T) {
	e := newTestEnricher(t, nil, Options{})
	rec := domain.Record{
		"id":               "node/1",
		"name":             "Sporthal Galgenwaard",
		"sport":            "multi",
		"leisure":          "sports_hall",
		"addr_street":      "Herculesplein",
		"addr_housenumber": "1",
		"addr_postcode":    "3584 AA",
		"addr_city":        "Utrecht",
		"lat":              "52.078",
		"lon":              "5.146",
		"opening_hours":    "Mo-Fr 08:00-22:00",
	}

	v := e.Enrich(context.Background(), rec, nil, nil)

	assert.Equal(t, "node/1", v.ID)
	assert.Equal(t, "Sporthal Galgenwaard", v.Title)
	assert.Equal(t, "Multi • Sports Hall", v.Subtitle)
	assert.Equal(t, "Herculesplein 1", v.AddressLine1)
	assert.Equal(t, "3584 AA Utrecht", v.AddressLine2)
	assert.InDelta(t, 52.078, v.Lat, 1e-9)
	assert.InDelta(t, 5.146, v.Lon, 1e-9)
	assert.Equal(t, "Mo-Fr 08:00-22:00", v.OpeningHours)
	assert.Equal(t, HoursFromRecord, v.HoursSource)
	assert.Empty(t, v.Links)
	assert.False(t, v.Rentable)
	assert.Equal(t, "not_attempted", v.Enrichment.Status)
}

func TestEnricher_Enrich_DoesNotMutateRecord(t *testing.T) {
	lookup := &stubLookup{result: cache.Result{
		Status:       cache.StatusFound,
		Website:      "zuid.example",
		MapsURL:      "https://maps.google.com/?cid=9",
		OpeningHours: "maandag: 09:00–17:00",
	}}
	e := newTestEnricher(t, lookup, bothPolicies)
	rec := domain.Record{"name": "Sporthal Zuid", "addr_city": "Utrecht"}
	before := maps.Clone(rec)

	e.Enrich(context.Background(), rec, price.ChainPrices{}, reference.NewSet())

	assert.Equal(t, before, rec)
}

func TestEnricher_Enrich_LookupPolicy(t *testing.T) {
	found := cache.Result{
		Status:       cache.StatusFound,
		Website:      "www.zuid.example",
		MapsURL:      "https://maps.google.com/?cid=9",
		OpeningHours: "maandag: 09:00–17:00 | dinsdag: 09:00–17:00",
	}

	tests := []struct {
		name        string
		opts        Options
		rec         domain.Record
		wantCalled  bool
		wantHours   string
		wantSource  string
		wantLinks   []links.Entry
		wantOutcome string
	}{
		{
			name:       "missing hours and links",
			opts:       bothPolicies,
			rec:        domain.Record{"name": "Sporthal Zuid", "addr_city": "Utrecht"},
			wantCalled: true,
			wantHours:  found.OpeningHours,
			wantSource: HoursFromPlaces,
			wantLinks: []links.Entry{
				{Label: LabelPlacesWebsite, URL: "https://www.zuid.example"},
				{Label: LabelPlacesMaps, URL: "https://maps.google.com/?cid=9"},
			},
			wantOutcome: "found",
		},
		{
			name:        "record hours kept, links filled",
			opts:        bothPolicies,
			rec:         domain.Record{"name": "Sporthal Zuid", "addr_city": "Utrecht", "opening_hours": "24/7"},
			wantCalled:  true,
			wantHours:   "24/7",
			wantSource:  HoursFromRecord,
			wantLinks:   []links.Entry{{Label: LabelPlacesWebsite, URL: "https://www.zuid.example"}, {Label: LabelPlacesMaps, URL: "https://maps.google.com/?cid=9"}},
			wantOutcome: "found",
		},
		{
			name:        "links present, only hours filled",
			opts:        bothPolicies,
			rec:         domain.Record{"name": "Sporthal Zuid", "addr_city": "Utrecht", "website": "zuid.nl"},
			wantCalled:  true,
			wantHours:   found.OpeningHours,
			wantSource:  HoursFromPlaces,
			wantLinks:   []links.Entry{{Label: "website", URL: "https://zuid.nl"}},
			wantOutcome: "found",
		},
		{
			name:        "nothing missing",
			opts:        bothPolicies,
			rec:         domain.Record{"name": "Sporthal Zuid", "addr_city": "Utrecht", "website": "zuid.nl", "opening_hours": "24/7"},
			wantHours:   "24/7",
			wantSource:  HoursFromRecord,
			wantLinks:   []links.Entry{{Label: "website", URL: "https://zuid.nl"}},
			wantOutcome: "not_attempted",
		},
		{
			name:        "no city",
			opts:        bothPolicies,
			rec:         domain.Record{"name": "Sporthal Zuid"},
			wantOutcome: "not_attempted",
		},
		{
			name:        "policies off",
			opts:        Options{},
			rec:         domain.Record{"name": "Sporthal Zuid", "addr_city": "Utrecht"},
			wantOutcome: "not_attempted",
		},
		{
			name:        "links policy only",
			opts:        Options{LinksIfMissing: true},
			rec:         domain.Record{"name": "Sporthal Zuid", "addr_city": "Utrecht"},
			wantCalled:  true,
			wantLinks:   []links.Entry{{Label: LabelPlacesWebsite, URL: "https://www.zuid.example"}, {Label: LabelPlacesMaps, URL: "https://maps.google.com/?cid=9"}},
			wantOutcome: "found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &stubLookup{result: found}
			e := newTestEnricher(t, lookup, tt.opts)

			v := e.Enrich(context.Background(), tt.rec, nil, nil)

			if tt.wantCalled {
				assert.Equal(t, []string{"Sporthal Zuid|Utrecht"}, lookup.calls)
			} else {
				assert.Empty(t, lookup.calls)
			}
			assert.Equal(t, tt.wantHours, v.OpeningHours)
			assert.Equal(t, tt.wantSource, v.HoursSource)
			assert.Equal(t, tt.wantLinks, v.Links)
			assert.Equal(t, tt.wantOutcome, v.Enrichment.Status)
		})
	}
}

func TestEnricher_Enrich_PlacesLinksDeduplicated(t *testing.T) {
	lookup := &stubLookup{result: cache.Result{
		Status:  cache.StatusFound,
		Website: "HTTPS://Maps.Google.com/?cid=9",
		MapsURL: "https://maps.google.com/?cid=9",
	}}
	e := newTestEnricher(t, lookup, bothPolicies)

	v := e.Enrich(context.Background(), domain.Record{"name": "Hal", "addr_city": "Utrecht"}, nil, nil)

	assert.Equal(t, []links.Entry{{Label: LabelPlacesWebsite, URL: "HTTPS://Maps.Google.com/?cid=9"}}, v.Links)
}

func TestEnricher_Enrich_NegativeResult(t *testing.T) {
	lookup := &stubLookup{result: cache.Result{Status: cache.StatusNotFound, Reason: cache.ReasonBudgetExhausted}}
	e := newTestEnricher(t, lookup, bothPolicies)

	v := e.Enrich(context.Background(), domain.Record{"name": "Hal", "addr_city": "Utrecht"}, nil, nil)

	assert.Empty(t, v.Links)
	assert.Empty(t, v.OpeningHours)
	assert.Equal(t, "not_found", v.Enrichment.Status)
	assert.Equal(t, "budget_exhausted", v.Enrichment.Reason)
}

func TestEnricher_Enrich_LinkDisplayLimit(t *testing.T) {
	e := newTestEnricher(t, nil, Options{})
	rec := domain.Record{
		"website":  "a.example, b.example c.example",
		"url":      "d.example",
		"facebook": "facebook.com/x, A.EXAMPLE",
		"twitter":  "twitter.com/x",
	}

	v := e.Enrich(context.Background(), rec, nil, nil)

	require.Len(t, v.Links, 5)
	assert.Equal(t, "https://a.example", v.Links[0].URL)
	assert.Equal(t, "https://facebook.com/x", v.Links[4].URL)
}

func TestEnricher_Enrich_ChainPrice(t *testing.T) {
	e := newTestEnricher(t, nil, Options{})
	prices := price.ChainPrices{"Basic-Fit": "vanaf €24,99 per 4 weken", "SportCity": ""}

	v := e.Enrich(context.Background(), domain.Record{"name": "Basic-Fit Utrecht Centrum"}, prices, nil)
	assert.Equal(t, "Basic-Fit", v.Chain)
	assert.Equal(t, "vanaf €24,99 per 4 weken", v.ChainPrice)

	v = e.Enrich(context.Background(), domain.Record{"name": "Gym", "brand": "SportCity"}, prices, nil)
	assert.Equal(t, "SportCity", v.Chain)
	assert.Empty(t, v.ChainPrice)

	v = e.Enrich(context.Background(), domain.Record{"name": "Sporthal Zuid"}, prices, nil)
	assert.Empty(t, v.Chain)
	assert.Empty(t, v.ChainPrice)
}

func TestEnricher_Enrich_Rental(t *testing.T) {
	e := newTestEnricher(t, nil, Options{})
	ref := reference.NewSet("Sportzaal Zuid")

	tests := []struct {
		name string
		rec  domain.Record
		want bool
	}{
		{"numbered sub-venue in Utrecht", domain.Record{"name": "Sportzaal Zuid 3", "addr_city": "Utrecht"}, true},
		{"other municipality city", domain.Record{"name": "Sportzaal Zuid", "addr_city": "De Meern"}, true},
		{"outside municipality", domain.Record{"name": "Sportzaal Zuid", "addr_city": "Amersfoort"}, false},
		{"not listed", domain.Record{"name": "Sportzaal Noord", "addr_city": "Utrecht"}, false},
		{"no city", domain.Record{"name": "Sportzaal Zuid"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := e.Enrich(context.Background(), tt.rec, nil, ref)
			assert.Equal(t, tt.want, v.Rentable)
			if !tt.want {
				assert.Nil(t, v.Rental)
				return
			}
			require.NotNil(t, v.Rental)
			assert.Equal(t, "In het weekend al vanaf €8,40 per uur.", v.Rental.PriceText)
			assert.NotEmpty(t, v.Rental.BookingURL)
			assert.NotEmpty(t, v.Rental.InfoURL)
		})
	}
}
