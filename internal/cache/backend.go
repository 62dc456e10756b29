package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// SchemaVersion is the persisted layout version written by this package.
const SchemaVersion = 2

// Meta is the persisted counter state.
type Meta struct {
	SchemaVersion int `json:"schema_version"`
	RequestsMade  int `json:"requests_made"`
}

// Snapshot is the complete persisted cache: meta plus every entry.
type Snapshot struct {
	Meta Meta
	Data map[string]Result
}

// NewSnapshot returns an empty snapshot at the current schema version.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Meta: Meta{SchemaVersion: SchemaVersion},
		Data: make(map[string]Result),
	}
}

// Normalize repairs a decoded snapshot in place: missing maps are created,
// negative counters are clamped, and entries written without a status get one.
func (s *Snapshot) Normalize() {
	if s.Data == nil {
		s.Data = make(map[string]Result)
	}
	s.Meta.RequestsMade = max(s.Meta.RequestsMade, 0)
	for key, r := range s.Data {
		r.legacyStatus()
		if key == "" || !r.Reason.Persistent() {
			delete(s.Data, key)
			continue
		}
		s.Data[key] = r
	}
	s.Meta.SchemaVersion = SchemaVersion
}

// Backend persists snapshots.
//
// Load returns an empty snapshot when nothing has been stored yet and an
// error when stored state cannot be read. Save stores the meta and every entry
// of snap; the cache never removes persisted entries, so backends may upsert.
type Backend interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}

// SetAside renames damaged persisted state at path, and any sidecar files
// named path+suffix, to "<path>.corrupt-<unix seconds>" so a fresh store can be
// created in its place. It returns the new path of the main file.
func SetAside(path string, now time.Time, sidecars ...string) (string, error) {
	target := fmt.Sprintf("%s.corrupt-%d", path, now.Unix())
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("set aside %s: %w", path, err)
	}
	for _, suffix := range sidecars {
		err := os.Rename(path+suffix, target+suffix)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return target, fmt.Errorf("set aside %s: %w", path+suffix, err)
		}
	}
	return target, nil
}
