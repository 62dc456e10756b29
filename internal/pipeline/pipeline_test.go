package pipeline

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportmap/sportmap-enricher/internal/cache"
	"github.com/sportmap/sportmap-enricher/internal/catalog"
	"github.com/sportmap/sportmap-enricher/internal/enrich"
	"github.com/sportmap/sportmap-enricher/internal/price"
	"github.com/sportmap/sportmap-enricher/internal/reference"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCache answers every lookup with a found result and tracks unsaved entries.
type fakeCache struct {
	dirty   int
	saves   int
	made    int
	saveErr error
	ctxErrs []error
}

func (f *fakeCache) Lookup(_ context.Context, title, _ string) cache.Result {
	f.dirty++
	f.made += 2
	return cache.Result{
		Status:       cache.StatusFound,
		Website:      "www." + strings.ToLower(strings.ReplaceAll(title, " ", "")) + ".nl",
		OpeningHours: "maandag: 08:00-22:00",
	}
}

func (f *fakeCache) Dirty() int { return f.dirty }

func (f *fakeCache) Save(ctx context.Context) error {
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.dirty = 0
	return nil
}

func (f *fakeCache) Stats() cache.Stats {
	return cache.Stats{RequestsMade: f.made, Budget: 100}
}

func newTestRunner(t *testing.T, fc *fakeCache, opts Options) *Runner {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	e := enrich.New(cat, fc, enrich.Options{HoursIfMissing: true, LinksIfMissing: true}, testLogger())
	run := &RunContext{
		Prices:    price.ChainPrices{"Basic-Fit": "vanaf €24,99 per 4 weken"},
		Reference: reference.NewSet("Sportzaal Zuid"),
	}
	return NewRunner(e, fc, run, opts, testLogger())
}

const input = `{"id":"1","name":"Basic-Fit Utrecht","addr_city":"Utrecht","lat":52.09,"lon":5.12}
{"id":"2","name":"Sportzaal Zuid 2","addr_city":"Utrecht","lat":"52.07","lon":"5.10","opening_hours":"Mo-Fr 08:00-22:00","website":"https://zuid.example"}

not json
{"id":"3","name":"Zonder locatie","addr_city":"Utrecht"}
{"id":"4","sport":"tennis","addr_city":"Zeist","lat":52.08,"lon":5.23}
`

func decodeViews(t *testing.T, out string) []enrich.View {
	t.Helper()
	var views []enrich.View
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var v enrich.View
		require.NoError(t, json.Unmarshal([]byte(line), &v))
		views = append(views, v)
	}
	return views
}

func TestRunner_Run(t *testing.T) {
	fc := &fakeCache{}
	r := newTestRunner(t, fc, Options{})

	var out bytes.Buffer
	sum, err := r.Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	views := decodeViews(t, out.String())
	require.Len(t, views, 3)

	assert.Equal(t, "1", views[0].ID)
	assert.Equal(t, "Basic-Fit", views[0].Chain)
	assert.Equal(t, "vanaf €24,99 per 4 weken", views[0].ChainPrice)
	assert.Equal(t, "found", views[0].Enrichment.Status)

	assert.Equal(t, "2", views[1].ID)
	assert.True(t, views[1].Rentable)
	assert.Equal(t, "not_attempted", views[1].Enrichment.Status)

	assert.Equal(t, "Tennis", views[2].Title)

	assert.True(t, strings.HasPrefix(sum.RunID, "run-"))
	assert.Equal(t, 4, sum.Read)
	assert.Equal(t, 3, sum.Written)
	assert.Equal(t, 1, sum.Invalid)
	assert.Equal(t, 1, sum.NoLocation)
	assert.Equal(t, 2, sum.Lookups)
	assert.Equal(t, 2, sum.Found)
	assert.Equal(t, 1, sum.Chains)
	assert.Equal(t, 1, sum.Rentable)
	assert.Equal(t, 4, sum.RequestsMade)
	assert.Equal(t, 100, sum.Budget)
	assert.Equal(t, 1, fc.saves)
}

func TestRunner_RecordLimit(t *testing.T) {
	fc := &fakeCache{}
	r := newTestRunner(t, fc, Options{RecordLimit: 1})

	var out bytes.Buffer
	sum, err := r.Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	assert.Len(t, decodeViews(t, out.String()), 1)
	assert.Equal(t, 1, sum.Written)
}

func TestRunner_Checkpoints(t *testing.T) {
	var lines []string
	for i := range 5 {
		lines = append(lines, `{"id":"`+string(rune('a'+i))+`","name":"Hal `+string(rune('A'+i))+`","addr_city":"Utrecht","lat":1,"lon":2}`)
	}

	fc := &fakeCache{}
	r := newTestRunner(t, fc, Options{CheckpointEvery: 2})

	sum, err := r.Run(context.Background(), strings.NewReader(strings.Join(lines, "\n")), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Checkpoints)
	// Two checkpoints plus the final save.
	assert.Equal(t, 3, fc.saves)
}

func TestRunner_CanceledStillSaves(t *testing.T) {
	fc := &fakeCache{}
	r := newTestRunner(t, fc, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	sum, err := r.Run(ctx, strings.NewReader(input), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, sum.Written)
	assert.Empty(t, out.String())

	require.Len(t, fc.ctxErrs, 1)
	assert.NoError(t, fc.ctxErrs[0])
}

func TestRunner_SaveError(t *testing.T) {
	fc := &fakeCache{saveErr: errors.New("disk full")}
	r := newTestRunner(t, fc, Options{CheckpointEvery: 1})

	var out bytes.Buffer
	sum, err := r.Run(context.Background(), strings.NewReader(input), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// Failed checkpoints do not stop the run.
	assert.Equal(t, 3, sum.Written)
	assert.Equal(t, 0, sum.Checkpoints)
}

func TestRecordReader(t *testing.T) {
	rr := NewRecordReader(strings.NewReader("{\"a\":1}\n\n[1,2]\n{\"b\":\"x\"}"))

	rec, err := rr.Next()
	require.NoError(t, err)
	assert.Equal(t, "1", rec["a"])

	_, err = rr.Next()
	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 3, lineErr.Line)

	rec, err = rr.Next()
	require.NoError(t, err)
	assert.Equal(t, "x", rec["b"])

	_, err = rr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRunner_NonFiniteCoordinatesSkipped(t *testing.T) {
	fc := &fakeCache{}
	r := newTestRunner(t, fc, Options{})

	in := `{"id":"a","name":"A","lat":"inf","lon":"5"}
{"id":"b","name":"B","lat":"52.1","lon":"-Infinity"}
{"id":"c","name":"C","addr_city":"Utrecht","lat":52.1,"lon":5.1}
`
	var out bytes.Buffer
	sum, err := r.Run(context.Background(), strings.NewReader(in), &out)
	require.NoError(t, err)

	views := decodeViews(t, out.String())
	require.Len(t, views, 1)
	assert.Equal(t, "c", views[0].ID)
	assert.Equal(t, 2, sum.NoLocation)
	assert.Equal(t, 1, sum.Written)
}

func TestViewWriter_EncodeError(t *testing.T) {
	var out bytes.Buffer
	w := NewViewWriter(&out)

	err := w.Write(map[string]float64{"lat": math.Inf(1)})
	var encErr *EncodeError
	require.ErrorAs(t, err, &encErr)

	require.NoError(t, w.Write(map[string]string{"id": "ok"}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "{\"id\":\"ok\"}\n", out.String())
}
