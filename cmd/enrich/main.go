// Package main provides the batch enrichment command: facility records in as
// JSON lines, display views out as JSON lines.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/sportmap/sportmap-enricher/internal/config"
	"github.com/sportmap/sportmap-enricher/internal/di"
	"github.com/sportmap/sportmap-enricher/internal/logger"
	"github.com/sportmap/sportmap-enricher/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := di.NewContainer(ctx)
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		return 1
	}

	cfg := do.MustInvoke[*config.Config](injector)
	log := do.MustInvoke[*logger.Logger](injector)
	runner := do.MustInvoke[*pipeline.Runner](injector)

	defer func() {
		if err := injector.Shutdown(); err != nil {
			log.Error("Shutdown error", "error", err)
		}
	}()

	in, closeIn, err := openInput(cfg.Pipeline.InputPath)
	if err != nil {
		log.Error("Cannot open input", "path", cfg.Pipeline.InputPath, "error", err)
		return 1
	}
	defer closeIn()

	out, closeOut, err := openOutput(cfg.Pipeline.OutputPath)
	if err != nil {
		log.Error("Cannot open output", "path", cfg.Pipeline.OutputPath, "error", err)
		return 1
	}

	_, runErr := runner.Run(ctx, in, out)
	if err := closeOut(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		log.Error("Enrichment run failed", "error", runErr)
		return 1
	}
	return 0
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
