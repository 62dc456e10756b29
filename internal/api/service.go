package api

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sportmap/sportmap-enricher/internal/cache"
	"github.com/sportmap/sportmap-enricher/internal/domain"
	"github.com/sportmap/sportmap-enricher/internal/enrich"
	"github.com/sportmap/sportmap-enricher/internal/pipeline"
)

// Service serializes access to the enrichment engine. The engine and its
// cache are single-threaded, so every request holds the lock for the whole
// enrichment.
type Service struct {
	mu              sync.Mutex
	enricher        pipeline.Enricher
	cache           pipeline.Checkpointer
	run             *pipeline.RunContext
	checkpointEvery int
	logger          *slog.Logger
}

// NewService creates a Service. run must already be prepared.
func NewService(enricher pipeline.Enricher, c pipeline.Checkpointer, run *pipeline.RunContext, checkpointEvery int, logger *slog.Logger) *Service {
	return &Service{
		enricher:        enricher,
		cache:           c,
		run:             run,
		checkpointEvery: checkpointEvery,
		logger:          logger,
	}
}

// Enrich derives the view for one record and checkpoints the cache when
// enough entries are unsaved.
func (s *Service) Enrich(ctx context.Context, rec domain.Record) enrich.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.enricher.Enrich(ctx, rec, s.run.Prices, s.run.Reference)

	if s.checkpointEvery > 0 && s.cache.Dirty() >= s.checkpointEvery {
		if err := s.cache.Save(ctx); err != nil {
			s.logger.Warn("checkpoint failed", "error", err)
		}
	}
	return view
}

// Save persists the cache now.
func (s *Service) Save(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.cache.Dirty()
	if err := s.cache.Save(ctx); err != nil {
		return pending, err
	}
	return pending, nil
}

// Stats returns cache counters.
func (s *Service) Stats() cache.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Stats()
}

// ReferenceVenues returns the size of the loaded reference set.
func (s *Service) ReferenceVenues() int {
	return s.run.Reference.Len()
}

// ChainPrices returns how many chains have a price and how many were tried.
func (s *Service) ChainPrices() (found, total int) {
	return s.run.Prices.Found(), len(s.run.Prices)
}
