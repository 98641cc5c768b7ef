package tasks

import (
	"context"
	"log/slog"

	"uls_etl/internal/pipeline"
)

// DatasetRefresh re-runs one dataset pipeline each time the scheduler fires
type DatasetRefresh struct {
	job    pipeline.Job
	onDone func(pipeline.Result, error)
}

// NewDatasetRefresh wraps job. onDone, if set, sees every outcome.
func NewDatasetRefresh(job pipeline.Job, onDone func(pipeline.Result, error)) *DatasetRefresh {
	return &DatasetRefresh{job: job, onDone: onDone}
}

func (t *DatasetRefresh) Name() string {
	return "refresh_" + t.job.Name()
}

// Run executes the pipeline once
func (t *DatasetRefresh) Run(ctx context.Context) error {
	res, err := t.job.Run(ctx)
	if t.onDone != nil {
		t.onDone(res, err)
	}
	if err != nil {
		return err
	}

	slog.Info("Dataset refreshed",
		"dataset", res.Dataset,
		"source", res.Source,
		"records", res.Written,
		"path", res.OutputPath,
		"elapsed", res.Elapsed,
	)
	return nil
}
