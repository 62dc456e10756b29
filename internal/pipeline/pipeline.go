// Package pipeline runs batch enrichment: records in, views out, with the
// place cache checkpointed along the way.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sportmap/sportmap-enricher/internal/cache"
	"github.com/sportmap/sportmap-enricher/internal/domain"
	"github.com/sportmap/sportmap-enricher/internal/enrich"
	"github.com/sportmap/sportmap-enricher/internal/id"
	"github.com/sportmap/sportmap-enricher/internal/price"
	"github.com/sportmap/sportmap-enricher/internal/reference"
)

// Enricher derives a view from a record.
type Enricher interface {
	Enrich(ctx context.Context, rec domain.Record, prices price.ChainPrices, ref *reference.Set) enrich.View
}

// Checkpointer is the persistence side of the place cache.
type Checkpointer interface {
	Dirty() int
	Save(ctx context.Context) error
	Stats() cache.Stats
}

// Options controls a batch run.
type Options struct {
	// RecordLimit caps the number of records enriched; 0 means no limit.
	RecordLimit int
	// CheckpointEvery saves the cache once this many entries are unsaved;
	// 0 saves only at the end.
	CheckpointEvery int
}

// Summary describes a finished run.
type Summary struct {
	RunID        string
	Read         int
	Written      int
	Invalid      int
	NoLocation   int
	Unencodable  int
	Lookups      int
	Found        int
	Chains       int
	Rentable     int
	Checkpoints  int
	RequestsMade int
	Budget       int
	Duration     time.Duration
}

// Runner enriches a stream of records sequentially.
type Runner struct {
	enricher Enricher
	cache    Checkpointer
	run      *RunContext
	opts     Options
	logger   *slog.Logger
}

// NewRunner creates a Runner. run must already be prepared.
func NewRunner(enricher Enricher, c Checkpointer, run *RunContext, opts Options, logger *slog.Logger) *Runner {
	return &Runner{
		enricher: enricher,
		cache:    c,
		run:      run,
		opts:     opts,
		logger:   logger,
	}
}

// Run reads records from in and writes one view per line to out. Records
// without coordinates are skipped because they cannot be placed on the map.
// The cache is always saved before Run returns, also when ctx is canceled.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) (Summary, error) {
	start := time.Now()
	runID, err := id.Generate(id.PrefixRun)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{RunID: runID}
	log := r.logger.With("run_id", runID)

	log.Info("run started",
		"record_limit", r.opts.RecordLimit,
		"checkpoint_every", r.opts.CheckpointEvery,
	)

	reader := NewRecordReader(in)
	writer := NewViewWriter(out)

	runErr := r.loop(ctx, reader, writer, &sum, log)
	if err := writer.Flush(); err != nil && runErr == nil {
		runErr = fmt.Errorf("flush output: %w", err)
	}

	// Save with a fresh context so a canceled run still keeps its lookups.
	if err := r.cache.Save(context.WithoutCancel(ctx)); err != nil {
		log.Error("final cache save failed", "error", err)
		if runErr == nil {
			runErr = fmt.Errorf("save cache: %w", err)
		}
	}

	stats := r.cache.Stats()
	sum.RequestsMade = stats.RequestsMade
	sum.Budget = stats.Budget
	sum.Duration = time.Since(start)

	log.Info("run finished",
		"read", sum.Read,
		"written", sum.Written,
		"invalid", sum.Invalid,
		"no_location", sum.NoLocation,
		"unencodable", sum.Unencodable,
		"lookups", sum.Lookups,
		"found", sum.Found,
		"chains", sum.Chains,
		"rentable", sum.Rentable,
		"checkpoints", sum.Checkpoints,
		"requests_made", sum.RequestsMade,
		"budget", sum.Budget,
		"duration", sum.Duration,
	)

	return sum, runErr
}

func (r *Runner) loop(ctx context.Context, reader *RecordReader, writer *ViewWriter, sum *Summary, log *slog.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.opts.RecordLimit > 0 && sum.Written >= r.opts.RecordLimit {
			log.Info("record limit reached", "limit", r.opts.RecordLimit)
			return nil
		}

		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var lineErr *LineError
		if errors.As(err, &lineErr) {
			sum.Invalid++
			log.Warn("skipping invalid record", "line", lineErr.Line, "error", lineErr.Err)
			continue
		}
		if err != nil {
			return fmt.Errorf("read records: %w", err)
		}
		sum.Read++

		if _, _, ok := rec.Coordinates(); !ok {
			sum.NoLocation++
			continue
		}

		view := r.enricher.Enrich(ctx, rec, r.run.Prices, r.run.Reference)
		if err := writer.Write(view); err != nil {
			var encErr *EncodeError
			if !errors.As(err, &encErr) {
				return fmt.Errorf("write view: %w", err)
			}
			sum.Unencodable++
			log.Warn("skipping unencodable view", "id", view.ID, "error", encErr.Err)
			continue
		}
		sum.Written++
		tally(sum, view)

		if r.opts.CheckpointEvery > 0 && r.cache.Dirty() >= r.opts.CheckpointEvery {
			if err := r.cache.Save(ctx); err != nil {
				log.Warn("checkpoint failed", "error", err)
			} else {
				sum.Checkpoints++
				log.Debug("checkpoint saved", "written", sum.Written)
			}
		}
	}
}

func tally(sum *Summary, v enrich.View) {
	if v.Enrichment.Status != cache.StatusNotAttempted.String() {
		sum.Lookups++
	}
	if v.Enrichment.Status == cache.StatusFound.String() {
		sum.Found++
	}
	if v.Chain != "" {
		sum.Chains++
	}
	if v.Rentable {
		sum.Rentable++
	}
}
