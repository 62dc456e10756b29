package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportmap/sportmap-enricher/internal/catalog"
	"github.com/sportmap/sportmap-enricher/internal/fetch"
	"github.com/sportmap/sportmap-enricher/internal/price"
)

const listingPage = `<select><option>Sportzaal Zuid</option><option>Zwembad West</option></select>`

func newContextFixture(t *testing.T) (*catalog.Catalog, *fetch.Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/listing" {
			w.Write([]byte(listingPage))
			return
		}
		w.Write([]byte("Vanaf €24,99 per 4 weken"))
	}))
	t.Cleanup(server.Close)

	cat, err := catalog.Default()
	require.NoError(t, err)
	cat.Chains = []catalog.Chain{{Name: "Basic-Fit", PriceURLs: []string{server.URL + "/prijzen"}}}
	cat.Reference.ListingURL = server.URL + "/listing"
	cat.Reference.Prefixes = []string{"Sportzaal "}

	client := fetch.New(2*time.Second, testLogger())
	t.Cleanup(client.Close)
	return cat, client, &hits
}

func TestPrepareContext(t *testing.T) {
	cat, client, hits := newContextFixture(t)
	scraper := price.NewScraper(client, nil, 0, testLogger())

	run := PrepareContext(context.Background(), cat, scraper, client, testLogger())

	assert.Equal(t, "Vanaf €24,99 per 4 weken", run.Prices.Get("Basic-Fit"))
	assert.Equal(t, 1, run.Reference.Len())
	assert.True(t, run.Reference.IsEligible("Sportzaal Zuid 2"))
	assert.Equal(t, int32(2), hits.Load())
}

func TestPrepareContext_Canceled(t *testing.T) {
	cat, client, hits := newContextFixture(t)
	scraper := price.NewScraper(client, nil, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	run := PrepareContext(ctx, cat, scraper, client, testLogger())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "", run.Prices.Get("Basic-Fit"))
	assert.Equal(t, 0, run.Reference.Len())
	assert.Zero(t, hits.Load())
}
