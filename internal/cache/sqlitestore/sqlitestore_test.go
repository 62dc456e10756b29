package sqlitestore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportmap/sportmap-enricher/internal/cache"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := Open(path, logger)
	require.NoError(t, err)
	return s, path
}

func TestOpen(t *testing.T) {
	s, _ := newTestStore(t)
	defer s.Close()

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	for _, table := range []string{"enrich_meta", "enrich_entries"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	empty, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Meta.RequestsMade)
	assert.Empty(t, empty.Data)

	snap := cache.NewSnapshot()
	snap.Meta.RequestsMade = 4
	snap.Data["sporthal zuid utrecht"] = cache.Result{
		Status:       cache.StatusFound,
		Website:      "https://zuid.example",
		MapsURL:      "https://maps.google.com/?cid=3",
		OpeningHours: "maandag: 08:00–22:00 | dinsdag: gesloten",
		Name:         "Sporthal Zuid",
	}
	snap.Data["hal 1 utrecht"] = cache.Result{Status: cache.StatusNotFound, Reason: cache.ReasonNoCandidate}
	require.NoError(t, s.Save(ctx, snap))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Meta.RequestsMade)
	assert.Equal(t, snap.Data, got.Data)

	snap.Meta.RequestsMade = 6
	require.NoError(t, s.Save(ctx, snap))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Meta.RequestsMade)
	assert.Len(t, got.Data, 2)
}

func TestOpenOrReset_CorruptFile(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	path := filepath.Join(t.TempDir(), "places_cache.db")
	garbage := []byte(strings.Repeat("this is not a database ", 200))
	require.NoError(t, os.WriteFile(path, garbage, 0o644))

	_, err := Open(path, logger)
	require.Error(t, err)

	s, err := OpenOrReset(path, logger)
	require.NoError(t, err)
	defer s.Close()

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Data)

	moved, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, moved, 1)
	data, err := os.ReadFile(moved[0])
	require.NoError(t, err)
	assert.Equal(t, garbage, data)
}

func TestOpenOrReset_HealthyFileKept(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)
	snap := cache.NewSnapshot()
	snap.Meta.RequestsMade = 4
	require.NoError(t, s.Save(ctx, snap))
	require.NoError(t, s.Close())

	reopened, err := OpenOrReset(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Meta.RequestsMade)

	moved, _ := filepath.Glob(path + ".corrupt-*")
	assert.Empty(t, moved)
}
