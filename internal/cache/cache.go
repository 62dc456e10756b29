// Package cache is the budgeted enrichment cache: a persistent title|city →
// place details store that performs at most one two-step live lookup per key,
// ever, and never lets the external request counter pass its budget.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/sportmap/sportmap-enricher/internal/normalize"
	"github.com/sportmap/sportmap-enricher/internal/places"
	"github.com/sportmap/sportmap-enricher/internal/ratelimit"
)

const (
	// DefaultBudget is the lifetime ceiling on external requests.
	DefaultBudget = 10000
	// DefaultDelay is the pause after every external request.
	DefaultDelay = 100 * time.Millisecond

	// A live lookup is an identifier request followed by a details request.
	callsPerLookup = 2
)

// Provider is the external two-step lookup.
type Provider interface {
	places.Provider
	Configured() bool
}

// Options configures a Cache.
type Options struct {
	Budget int
	Delay  time.Duration
	Logger *slog.Logger
}

// Cache holds enrichment results in memory and persists them through a Backend.
// It is not safe for concurrent use.
type Cache struct {
	backend  Backend
	provider Provider
	counter  *Counter
	data     map[string]Result
	dirty    int
	delay    time.Duration
	sleep    func(context.Context, time.Duration) error
	logger   *slog.Logger
}

// Load reads persisted state from backend. Missing or unreadable state is
// logged and replaced with an empty cache; Load never fails.
// A nil provider disables live lookups.
func Load(ctx context.Context, backend Backend, provider Provider, opts Options) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Delay < 0 {
		opts.Delay = DefaultDelay
	}

	snap, err := backend.Load(ctx)
	if err != nil {
		logger.Warn("enrichment cache unreadable, starting fresh", "error", err)
		snap = nil
	}
	if snap == nil {
		snap = NewSnapshot()
	}
	snap.Normalize()

	logger.Info("enrichment cache loaded",
		"entries", len(snap.Data),
		"requests_made", snap.Meta.RequestsMade,
		"budget", opts.Budget,
	)

	return &Cache{
		backend:  backend,
		provider: provider,
		counter:  NewCounter(snap.Meta.RequestsMade, opts.Budget),
		data:     snap.Data,
		delay:    opts.Delay,
		sleep:    ratelimit.Sleep,
		logger:   logger,
	}
}

// Counter exposes the request counter for reporting.
func (c *Cache) Counter() *Counter {
	return c.counter
}

// Len returns the number of entries held, including this run's negatives.
func (c *Cache) Len() int {
	return len(c.data)
}

// Dirty returns how many persistent entries were added since the last save.
func (c *Cache) Dirty() int {
	return c.dirty
}

// Peek returns the entry for title and city without triggering a lookup.
func (c *Cache) Peek(title, city string) (Result, bool) {
	r, ok := c.data[normalize.CacheKey(title, city)]
	return r, ok
}

// IsCallAllowed reports whether a live lookup may start: a usable credential
// is configured and the remaining budget covers both lookup steps.
func (c *Cache) IsCallAllowed() bool {
	return c.configured() && c.counter.Allows(callsPerLookup)
}

func (c *Cache) configured() bool {
	return c.provider != nil && c.provider.Configured()
}

// Lookup returns the result for title and city.
//
// A cached entry, positive or negative, is returned without any external
// request. Otherwise, if calls are allowed, a live lookup runs: each of its two
// steps increments the counter exactly once and is followed by the fixed
// delay. Every failure is cached as a negative and never retried. When calls
// are not allowed the miss is cached as a negative for the rest of this run.
//
// If ctx is already done when a live lookup would start, the result is
// StatusNotAttempted and nothing is counted or cached. Once a request has been
// sent the key is settled: cancellation after that point caches a negative.
func (c *Cache) Lookup(ctx context.Context, title, city string) Result {
	key := normalize.CacheKey(title, city)
	if r, ok := c.data[key]; ok {
		return r
	}

	if !c.IsCallAllowed() {
		reason := ReasonBudgetExhausted
		if !c.configured() {
			reason = ReasonDisabled
		}
		return c.store(key, notFound(reason))
	}

	if ctx.Err() != nil {
		return Result{}
	}

	r, err := c.live(ctx, title+" "+city)
	if err != nil {
		c.logger.Debug("place lookup failed", "key", key, "reason", r.Reason, "error", err)
	}
	return c.store(key, r)
}

// live performs the two-step lookup. The returned result is always usable;
// the error is informational.
func (c *Cache) live(ctx context.Context, query string) (Result, error) {
	c.counter.Increment()
	placeID, err := c.provider.FindPlaceID(ctx, query)
	c.pause(ctx)
	if err != nil {
		if errors.Is(err, places.ErrNotFound) {
			return notFound(ReasonNoCandidate), err
		}
		return notFound(ReasonLookupFailed), err
	}

	if err := ctx.Err(); err != nil {
		return notFound(ReasonDetailsFailed), err
	}
	c.counter.Increment()
	details, err := c.provider.Details(ctx, placeID)
	c.pause(ctx)
	if err != nil {
		return notFound(ReasonDetailsFailed), err
	}

	return Result{
		Status:       StatusFound,
		Website:      details.Website,
		MapsURL:      details.MapsURL,
		OpeningHours: details.OpeningHours,
		Name:         details.Name,
	}, nil
}

func (c *Cache) pause(ctx context.Context) {
	if c.delay <= 0 {
		return
	}
	_ = c.sleep(ctx, c.delay)
}

func (c *Cache) store(key string, r Result) Result {
	c.data[key] = r
	if r.Reason.Persistent() {
		c.dirty++
	}
	return r
}

// Snapshot returns the persistable state. Negatives that only describe this
// run (budget exhausted, disabled) are left out.
func (c *Cache) Snapshot() *Snapshot {
	snap := NewSnapshot()
	snap.Meta.RequestsMade = c.counter.Made()
	for key, r := range c.data {
		if r.Status == StatusNotAttempted || !r.Reason.Persistent() {
			continue
		}
		snap.Data[key] = r
	}
	return snap
}

// Save persists the cache through its backend.
func (c *Cache) Save(ctx context.Context) error {
	snap := c.Snapshot()
	if err := c.backend.Save(ctx, snap); err != nil {
		return fmt.Errorf("save enrichment cache: %w", err)
	}
	c.dirty = 0
	c.logger.Debug("enrichment cache saved",
		"entries", len(snap.Data),
		"requests_made", snap.Meta.RequestsMade,
	)
	return nil
}

// Close releases the backend. It does not save.
func (c *Cache) Close() error {
	return c.backend.Close()
}

// Stats summarizes the cache for reporting.
type Stats struct {
	RequestsMade int            `json:"requests_made"`
	Budget       int            `json:"budget"`
	Remaining    int            `json:"remaining"`
	Enabled      bool           `json:"enabled"`
	Entries      int            `json:"entries"`
	Found        int            `json:"found"`
	NotFound     int            `json:"not_found"`
	Reasons      map[string]int `json:"reasons,omitempty"`
}

// Stats returns counts by status and reason.
func (c *Cache) Stats() Stats {
	s := Stats{
		RequestsMade: c.counter.Made(),
		Budget:       c.counter.Budget(),
		Remaining:    c.counter.Remaining(),
		Enabled:      c.configured(),
		Entries:      len(c.data),
		Reasons:      make(map[string]int),
	}
	for _, r := range c.data {
		switch r.Status {
		case StatusFound:
			s.Found++
		case StatusNotFound:
			s.NotFound++
			if r.Reason != ReasonNone {
				s.Reasons[string(r.Reason)]++
			}
		}
	}
	return s
}

// Entries returns a copy of all entries keyed by cache key.
func (c *Cache) Entries() map[string]Result {
	return maps.Clone(c.data)
}
