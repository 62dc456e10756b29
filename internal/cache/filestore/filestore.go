// Package filestore persists the enrichment cache as a single JSON document.
package filestore

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sportmap/sportmap-enricher/internal/cache"
)

// document is the on-disk layout. Files written before schema versioning
// carry "_meta" instead of "meta"; both are read, only "meta" is written.
type document struct {
	Meta       *cache.Meta             `json:"meta,omitempty"`
	LegacyMeta *legacyMeta             `json:"_meta,omitempty"`
	Data       map[string]cache.Result `json:"data"`
}

type legacyMeta struct {
	RequestsMade int `json:"requests_made"`
}

// Store reads and writes one JSON file.
type Store struct {
	path string
}

// New returns a store for path. The file is created on first save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the file location.
func (s *Store) Path() string {
	return s.path
}

// Load implements cache.Backend.
func (s *Store) Load(ctx context.Context) (*cache.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return cache.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", s.path, err)
	}

	snap := cache.NewSnapshot()
	switch {
	case doc.Meta != nil:
		snap.Meta.RequestsMade = doc.Meta.RequestsMade
	case doc.LegacyMeta != nil:
		snap.Meta.RequestsMade = doc.LegacyMeta.RequestsMade
	}
	if doc.Data != nil {
		snap.Data = doc.Data
	}
	return snap, nil
}

// Save implements cache.Backend. The document is written to a temporary file
// next to the target and renamed over it, so readers never see a partial file.
func (s *Store) Save(ctx context.Context, snap *cache.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	meta := snap.Meta
	doc := document{Meta: &meta, Data: snap.Data}
	if doc.Data == nil {
		doc.Data = map[string]cache.Result{}
	}

	data, err := json.Marshal(doc, json.Deterministic(true), jsontext.WithIndent("  "))
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := writeFileSync(tmpPath, data); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// Close implements cache.Backend.
func (s *Store) Close() error {
	return nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	return f.Close()
}
