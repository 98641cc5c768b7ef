package main

import (
	"context"
	"fmt"
	"log/slog"

	"uls_etl/internal/metrics"

	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "run [aircraft|tower]...",
		Short:     "Download, parse and serialize the selected datasets once",
		ValidArgs: []string{"aircraft", "tower"},
		RunE:      runRunCmd,
	}
}

func runRunCmd(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	for _, job := range jobs {
		res, err := job.Run(ctx)
		writeMetrics(runner.Metrics, cfg.Metrics.Textfile)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Summary)
	}

	return nil
}

// writeMetrics refreshes the textfile, a failure only warns
func writeMetrics(m *metrics.Metrics, path string) {
	if err := m.WriteTextfile(path); err != nil {
		slog.Warn("Failed to write metrics textfile", "path", path, "error", err)
	}
}
