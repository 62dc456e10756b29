// Package badgerstore persists the enrichment cache in an embedded Badger
// database, one key per entry.
package badgerstore

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/sportmap/sportmap-enricher/internal/cache"
)

const (
	metaKey     = "enrich:meta"
	entryPrefix = "enrich:entry:"
)

// Store wraps a Badger database.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens or creates the database directory at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Checkpoints must survive a crash
	opts.CompactL0OnClose = true // Faster startup on the next run

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	if logger != nil {
		logger.Debug("badger cache opened", "path", path)
	}
	return &Store{db: db, logger: logger}, nil
}

// OpenOrReset opens the database at path. If an existing directory cannot be
// opened it is set aside and a fresh database is created. A lock held by
// another process or a permission problem is returned unchanged.
func OpenOrReset(path string, logger *slog.Logger) (*Store, error) {
	s, err := Open(path, logger)
	if err == nil || !isCorrupt(err) {
		return s, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, err
	}

	moved, moveErr := cache.SetAside(path, time.Now())
	if moveErr != nil {
		return nil, errors.Join(err, moveErr)
	}
	if logger != nil {
		logger.Warn("badger cache corrupt, starting fresh", "path", path, "moved_to", moved, "error", err)
	}
	return Open(path, logger)
}

func isCorrupt(err error) bool {
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EWOULDBLOCK) {
		return false
	}
	return !strings.Contains(err.Error(), "directory lock")
}

// OpenInMemory opens a throwaway database, for tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger db: %w", err)
	}
	return &Store{db: db}, nil
}

// Load implements cache.Backend.
func (s *Store) Load(ctx context.Context) (*cache.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := cache.NewSnapshot()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &snap.Meta)
			}); err != nil {
				return fmt.Errorf("decode meta: %w", err)
			}
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key()[len(entryPrefix):])

			var r cache.Result
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return fmt.Errorf("decode entry %q: %w", key, err)
			}
			snap.Data[key] = r
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load badger cache: %w", err)
	}
	return snap, nil
}

// Save implements cache.Backend.
func (s *Store) Save(ctx context.Context, snap *cache.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()

	for key, r := range snap.Data {
		data, err := json.Marshal(r)
		if err != nil {
			wb.Cancel()
			return fmt.Errorf("marshal entry %q: %w", key, err)
		}
		if err := wb.Set([]byte(entryPrefix+key), data); err != nil {
			wb.Cancel()
			return fmt.Errorf("write entry %q: %w", key, err)
		}
	}

	meta, err := json.Marshal(snap.Meta)
	if err != nil {
		wb.Cancel()
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := wb.Set([]byte(metaKey), meta); err != nil {
		wb.Cancel()
		return fmt.Errorf("write meta: %w", err)
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush badger cache: %w", err)
	}
	return nil
}

// Close implements cache.Backend.
func (s *Store) Close() error {
	return s.db.Close()
}
