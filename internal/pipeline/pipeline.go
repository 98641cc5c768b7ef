// Package pipeline runs one registry dataset from remote archive to
// line-delimited JSON: fetch, extract, parse, aggregate, serialize.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"uls_etl/internal/archive"
	"uls_etl/internal/database"
	"uls_etl/internal/download"
	"uls_etl/internal/metrics"
	"uls_etl/internal/output"
	"uls_etl/internal/publish"
	"uls_etl/internal/records"
	"uls_etl/internal/uls"
)

// Fetcher materializes the first reachable locator at dest
type Fetcher interface {
	Fetch(ctx context.Context, locators []string, dest string, observers ...download.AttemptFunc) (string, error)
}

// Dataset describes one registry extract: where it lives, how its lines map to
// records and how records are folded together.
type Dataset[T any] struct {
	Name          string
	Locators      []string
	ArchiveName   string // scratch file for the download
	OutputName    string // output base name, ".gz" is appended when compressing
	Payload       archive.Pattern
	Map           uls.MapFunc[T]
	NewCollection func() records.Collection[T]
	Persist       func(db *database.DB, recs []T, batchSize int) error
	Summary       string // format with record count and output path
}

// Runner holds what every dataset run shares
type Runner struct {
	WorkDir     string
	Compress    bool
	KeepPayload bool
	Fetcher     Fetcher

	// Optional
	Metrics   *metrics.Metrics
	DB        *database.DB
	BatchSize int
	Publisher publish.Publisher
}

// Result describes a completed run
type Result struct {
	Dataset    string
	Source     string
	OutputPath string
	Written    int
	Stats      uls.Stats
	Elapsed    time.Duration
	Summary    string
}

// Run executes the stages strictly in sequence. Scratch files (archive and
// payload) never outlive the run.
func Run[T any](ctx context.Context, r *Runner, ds Dataset[T]) (res Result, err error) {
	start := time.Now()
	res.Dataset = ds.Name
	defer func() {
		res.Elapsed = time.Since(start)
		r.Metrics.ObserveRun(ds.Name, res.Written, res.Elapsed, err)
	}()

	if err := os.MkdirAll(r.WorkDir, 0750); err != nil {
		return res, fmt.Errorf("failed to create work directory: %w", err)
	}

	archivePath := filepath.Join(r.WorkDir, ds.ArchiveName)
	res.Source, err = r.Fetcher.Fetch(ctx, ds.Locators, archivePath, func(_, scheme string, err error) {
		r.Metrics.ObserveFetch(ds.Name, scheme, err)
	})
	if err != nil {
		return res, fmt.Errorf("%s: %w", ds.Name, err)
	}

	payloadPath, err := archive.ExtractPayload(archivePath, r.WorkDir, ds.Payload)
	if err != nil {
		return res, fmt.Errorf("%s: %w", ds.Name, err)
	}
	slog.Info("Using payload", "dataset", ds.Name, "file", filepath.Base(payloadPath))

	collection, stats, err := parsePayload(payloadPath, ds)
	if !r.KeepPayload {
		if rmErr := os.Remove(payloadPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			slog.Warn("Failed to remove payload", "path", payloadPath, "error", rmErr)
		}
	}
	if err != nil {
		return res, fmt.Errorf("%s: %w", ds.Name, err)
	}
	res.Stats = stats
	r.Metrics.ObserveParse(ds.Name, stats.Parsed, stats.Dropped)
	slog.Info("Parsed payload",
		"dataset", ds.Name,
		"lines", stats.Lines,
		"parsed", stats.Parsed,
		"dropped", stats.Dropped,
		"records", collection.Len(),
	)

	res.OutputPath, res.Written, err = output.WriteFile(filepath.Join(r.WorkDir, ds.OutputName), collection, r.Compress)
	if err != nil {
		return res, fmt.Errorf("%s: %w", ds.Name, err)
	}
	slog.Info("Wrote output", "dataset", ds.Name, "path", res.OutputPath, "records", res.Written)

	if r.DB != nil && ds.Persist != nil {
		if err := ds.Persist(r.DB, records.Slice(collection), r.BatchSize); err != nil {
			return res, fmt.Errorf("%s: failed to store snapshot: %w", ds.Name, err)
		}
		slog.Info("Stored snapshot", "dataset", ds.Name, "records", res.Written)
	}

	if r.Publisher != nil {
		if err := r.Publisher.Publish(ctx, res.OutputPath); err != nil {
			return res, fmt.Errorf("%s: %w", ds.Name, err)
		}
	}

	res.Summary = fmt.Sprintf(ds.Summary, res.Written, res.OutputPath)
	return res, nil
}

func parsePayload[T any](path string, ds Dataset[T]) (records.Collection[T], uls.Stats, error) {
	//nolint:gosec // G304: path is the payload extracted into the work directory
	f, err := os.Open(path)
	if err != nil {
		return nil, uls.Stats{}, fmt.Errorf("failed to open payload: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	collection := ds.NewCollection()
	stats, err := uls.Parse(f, ds.Map, collection.Add)
	if err != nil {
		return nil, stats, err
	}
	return collection, stats, nil
}

// Job is a dataset bound to a runner
type Job interface {
	Name() string
	Run(ctx context.Context) (Result, error)
}

type job[T any] struct {
	runner  *Runner
	dataset Dataset[T]
}

// NewJob binds ds to r
func NewJob[T any](r *Runner, ds Dataset[T]) Job {
	return &job[T]{runner: r, dataset: ds}
}

func (j *job[T]) Name() string { return j.dataset.Name }

func (j *job[T]) Run(ctx context.Context) (Result, error) {
	return Run(ctx, j.runner, j.dataset)
}
