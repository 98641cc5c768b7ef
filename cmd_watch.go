package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"uls_etl/internal/daemon"
	"uls_etl/internal/pipeline"
	"uls_etl/internal/scheduler"
	"uls_etl/internal/tasks"

	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "watch [aircraft|tower]...",
		Short:     "Refresh the selected datasets every refresh_interval until interrupted",
		ValidArgs: []string{"aircraft", "tower"},
		RunE:      runWatchCmd,
	}
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	compress := resolveCompress(cfg.Output.Compress, cmd.InOrStdin(), cmd.OutOrStdout())

	runner, closeRunner, err := buildRunner(cfg, compress)
	if err != nil {
		return err
	}
	defer closeRunner()

	jobs, err := buildJobs(cfg, runner, args)
	if err != nil {
		return err
	}

	refreshTasks := make([]scheduler.Task, 0, len(jobs))
	for _, job := range jobs {
		refreshTasks = append(refreshTasks, tasks.NewDatasetRefresh(job, func(pipeline.Result, error) {
			writeMetrics(runner.Metrics, cfg.Metrics.Textfile)
		}))
	}

	d, err := daemon.New(daemon.Config{Interval: cfg.RefreshInterval}, refreshTasks...)
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := d.Start(); err != nil {
		return err
	}

	<-sigChan
	slog.Info("Received interrupt signal, shutting down...")

	return d.Stop()
}
