// Package sqlitestore persists the enrichment cache in a SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sportmap/sportmap-enricher/internal/cache"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed cache backend.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the database at path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// The engine is single-threaded; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger != nil {
		logger.Debug("sqlite cache opened", "path", path)
	}
	return &Store{db: db, logger: logger}, nil
}

// OpenOrReset opens the database at path. If the file is not a readable
// SQLite database it is set aside, together with its WAL and shared-memory
// files, and a fresh database is created.
func OpenOrReset(path string, logger *slog.Logger) (*Store, error) {
	s, err := Open(path, logger)
	if err == nil || !isCorrupt(err) {
		return s, err
	}

	moved, moveErr := cache.SetAside(path, time.Now(), "-wal", "-shm")
	if moveErr != nil {
		return nil, errors.Join(err, moveErr)
	}
	if logger != nil {
		logger.Warn("sqlite cache corrupt, starting fresh", "path", path, "moved_to", moved, "error", err)
	}
	return Open(path, logger)
}

func isCorrupt(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	switch sqlErr.Code() & 0xff {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return true
	}
	return false
}

// Load implements cache.Backend.
func (s *Store) Load(ctx context.Context) (*cache.Snapshot, error) {
	snap := cache.NewSnapshot()

	err := s.db.QueryRowContext(ctx,
		`SELECT requests_made FROM enrich_meta WHERE id = 1`).Scan(&snap.Meta.RequestsMade)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("query meta: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cache_key, status, reason, website, gmaps_url, opening_hours, name FROM enrich_entries`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key    string
			status string
			reason string
			r      cache.Result
		)
		if err := rows.Scan(&key, &status, &reason, &r.Website, &r.MapsURL, &r.OpeningHours, &r.Name); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if err := r.Status.UnmarshalText([]byte(status)); err != nil {
			return nil, fmt.Errorf("entry %q: %w", key, err)
		}
		r.Reason = cache.Reason(reason)
		snap.Data[key] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return snap, nil
}

// Save implements cache.Backend. Entries and meta are written in one
// transaction.
func (s *Store) Save(ctx context.Context, snap *cache.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO enrich_entries (cache_key, status, reason, website, gmaps_url, opening_hours, name)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for key, r := range snap.Data {
		if _, err := stmt.ExecContext(ctx,
			key, r.Status.String(), string(r.Reason), r.Website, r.MapsURL, r.OpeningHours, r.Name); err != nil {
			return fmt.Errorf("insert entry %q: %w", key, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO enrich_meta (id, schema_version, requests_made, updated_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET schema_version = excluded.schema_version,
		     requests_made = excluded.requests_made, updated_at = excluded.updated_at`,
		snap.Meta.SchemaVersion, snap.Meta.RequestsMade, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close implements cache.Backend.
func (s *Store) Close() error {
	return s.db.Close()
}
