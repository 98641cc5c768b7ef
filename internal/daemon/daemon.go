package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"uls_etl/internal/scheduler"
)

// Daemon keeps the configured datasets fresh until stopped
type Daemon struct {
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler *scheduler.Scheduler
	done      chan struct{}
}

// Config holds daemon configuration
type Config struct {
	Interval time.Duration // Time between refresh rounds
}

// New creates a new daemon instance running tasks every cfg.Interval
func New(cfg Config, tasks ...scheduler.Task) (*Daemon, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be greater than 0")
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("at least one task is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	sched := scheduler.New(ctx, cfg.Interval)
	for _, t := range tasks {
		sched.AddTask(t)
	}

	return &Daemon{
		ctx:       ctx,
		cancel:    cancel,
		scheduler: sched,
		done:      make(chan struct{}),
	}, nil
}

func (d *Daemon) Start() error {
	slog.Info("Starting daemon")

	d.scheduler.Start()

	// Wait for context cancellation
	go func() {
		<-d.ctx.Done()
		close(d.done)
	}()

	slog.Info("Daemon started successfully")
	return nil
}

// Stop gracefully stops the daemon, abandoning an in-flight download
func (d *Daemon) Stop() error {
	slog.Info("Stopping daemon")
	d.cancel()
	<-d.done

	d.scheduler.Stop()

	slog.Info("Daemon stopped")
	return nil
}
