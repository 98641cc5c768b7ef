package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"uls_etl/internal/config"
	"uls_etl/internal/database"
	"uls_etl/internal/download"
	"uls_etl/internal/metrics"
	"uls_etl/internal/pipeline"
	"uls_etl/internal/publish"

	"github.com/spf13/cobra"
)

func initLogger(cfg *config.Config) {
	var logLevel slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// rootCommand builds the uls-etl command tree
func rootCommand() *cobra.Command {
	var configPath, compress string

	rootCmd := &cobra.Command{
		Use:           "uls-etl COMMAND [datasets]",
		Short:         "Convert ULS license registry extracts to line-delimited JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configPath != "" {
				os.Setenv("ULS_ETL_CONFIG_PATH", configPath)
			}
			if cmd.Flags().Changed("compress") {
				os.Setenv("ULS_ETL_OUTPUT_COMPRESS", compress)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&compress, "compress", "", "Compress output: y, n or ask")

	rootCmd.AddCommand(
		runCmd(),
		watchCmd(),
	)

	return rootCmd
}

// loadConfig loads the configuration and installs the logger
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	initLogger(cfg)
	return cfg, nil
}

// resolveCompress turns the configured mode into the pipeline's boolean,
// asking the operator once when the mode is "ask".
func resolveCompress(mode string, in io.Reader, out io.Writer) bool {
	switch mode {
	case config.CompressYes:
		return true
	case config.CompressNo:
		return false
	}

	fmt.Fprint(out, "Do you want to gzip-compress the JSON output? (y/n): ")
	answer, _ := bufio.NewReader(in).ReadString('\n')
	return strings.ToLower(strings.TrimSpace(answer)) == config.CompressYes
}

// buildRunner wires the shared pipeline dependencies. The returned close
// function releases the optional snapshot database.
func buildRunner(cfg *config.Config, compress bool) (*pipeline.Runner, func(), error) {
	runner := &pipeline.Runner{
		WorkDir:     cfg.WorkDir,
		Compress:    compress,
		KeepPayload: cfg.Output.KeepPayload,
		Fetcher:     download.NewFetcher(cfg.Download.Timeout, cfg.Download.UserAgent),
		Metrics:     metrics.New(),
		BatchSize:   cfg.SQLite.BatchSize,
	}
	closeFn := func() {}

	if cfg.SQLite.Path != "" {
		db, err := database.New(cfg.SQLite.Path)
		if err != nil {
			return nil, closeFn, fmt.Errorf("failed to initialize database: %w", err)
		}
		runner.DB = db
		closeFn = func() {
			if err := db.Close(); err != nil {
				slog.Error("Error closing database", "error", err)
			}
		}
	}

	pubCfg := publish.Config{
		Endpoint:  cfg.Publish.Endpoint,
		Bucket:    cfg.Publish.Bucket,
		Prefix:    cfg.Publish.Prefix,
		AccessKey: cfg.Publish.AccessKey,
		SecretKey: cfg.Publish.SecretKey,
		Secure:    cfg.Publish.Secure,
	}
	if pubCfg.Enabled() {
		store, err := publish.NewObjectStore(pubCfg)
		if err != nil {
			closeFn()
			return nil, func() {}, err
		}
		runner.Publisher = store
	}

	return runner, closeFn, nil
}

// buildJobs binds the named datasets to runner, in the order given.
// No names selects every dataset.
func buildJobs(cfg *config.Config, runner *pipeline.Runner, names []string) ([]pipeline.Job, error) {
	if len(names) == 0 {
		names = pipeline.DatasetNames
	}

	jobs := make([]pipeline.Job, 0, len(names))
	for _, name := range names {
		locators := cfg.Datasets[name]
		switch name {
		case pipeline.AircraftDataset:
			jobs = append(jobs, pipeline.NewJob(runner, pipeline.Aircraft(locators)))
		case pipeline.TowerDataset:
			jobs = append(jobs, pipeline.NewJob(runner, pipeline.Tower(locators)))
		default:
			return nil, fmt.Errorf("unknown dataset %q (must be one of %s)", name, strings.Join(pipeline.DatasetNames, ", "))
		}
	}

	return jobs, nil
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	if err := rootCommand().Execute(); err != nil {
		slog.Error("Fatal error", "error", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(Execute())
}
