package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Compression modes for output.compress
const (
	CompressYes = "y"
	CompressNo  = "n"
	CompressAsk = "ask"
)

// Config holds all configuration for the pipeline
type Config struct {
	WorkDir         string
	RefreshInterval time.Duration
	Download        DownloadConfig
	Output          OutputConfig
	Datasets        map[string][]string // dataset name to ordered locators
	SQLite          SQLiteConfig
	Metrics         MetricsConfig
	Publish         PublishConfig
	Log             LogConfig
}

// DownloadConfig bounds remote calls
type DownloadConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// OutputConfig controls serialization
type OutputConfig struct {
	Compress    string
	KeepPayload bool
}

// SQLiteConfig enables the snapshot database when Path is set
type SQLiteConfig struct {
	Path      string
	BatchSize int
}

// MetricsConfig enables the prometheus textfile when Textfile is set
type MetricsConfig struct {
	Textfile string
}

// PublishConfig enables upload to S3-compatible storage
type PublishConfig struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	Secure    bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

const (
	aircraftHTTPS = "https://data.fcc.gov/download/pub/uls/complete/l_aircr.zip"
	aircraftFTP   = "ftp://wirelessftp.fcc.gov/pub/uls/complete/l_aircr.zip"
	towerHTTPS    = "https://data.fcc.gov/download/pub/uls/complete/r_tower.zip"
	towerFTP      = "ftp://wirelessftp.fcc.gov/pub/uls/complete/r_tower.zip"
)

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("work_dir", "")
	v.SetDefault("refresh_interval", "24h")
	v.SetDefault("download.timeout", "60s")
	v.SetDefault("download.user_agent", "uls-etl/1.0")
	v.SetDefault("output.compress", CompressAsk)
	v.SetDefault("output.keep_payload", false)
	v.SetDefault("datasets.aircraft.urls", []string{aircraftHTTPS, aircraftFTP})
	v.SetDefault("datasets.tower.urls", []string{towerHTTPS, towerFTP})
	v.SetDefault("sqlite.path", "")
	v.SetDefault("sqlite.batch_size", 5000)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("publish.endpoint", "")
	v.SetDefault("publish.bucket", "")
	v.SetDefault("publish.prefix", "")
	v.SetDefault("publish.access_key", "")
	v.SetDefault("publish.secret_key", "")
	v.SetDefault("publish.secure", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/uls_etl")
	v.AddConfigPath(".")

	if configPath := os.Getenv("ULS_ETL_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file: defaults + env vars
	}

	v.SetEnvPrefix("ULS_ETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	workDir := v.GetString("work_dir")
	if workDir == "" {
		var err error
		if workDir, err = executableDir(); err != nil {
			return nil, fmt.Errorf("cannot determine work directory: %w", err)
		}
	}

	cfg := &Config{
		WorkDir:         workDir,
		RefreshInterval: v.GetDuration("refresh_interval"),
		Download: DownloadConfig{
			Timeout:   v.GetDuration("download.timeout"),
			UserAgent: v.GetString("download.user_agent"),
		},
		Output: OutputConfig{
			Compress:    normalizeCompress(v.GetString("output.compress")),
			KeepPayload: v.GetBool("output.keep_payload"),
		},
		Datasets: map[string][]string{
			"aircraft": v.GetStringSlice("datasets.aircraft.urls"),
			"tower":    v.GetStringSlice("datasets.tower.urls"),
		},
		SQLite: SQLiteConfig{
			Path:      v.GetString("sqlite.path"),
			BatchSize: v.GetInt("sqlite.batch_size"),
		},
		Metrics: MetricsConfig{
			Textfile: v.GetString("metrics.textfile"),
		},
		Publish: PublishConfig{
			Endpoint:  v.GetString("publish.endpoint"),
			Bucket:    v.GetString("publish.bucket"),
			Prefix:    v.GetString("publish.prefix"),
			AccessKey: v.GetString("publish.access_key"),
			SecretKey: v.GetString("publish.secret_key"),
			Secure:    v.GetBool("publish.secure"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// normalizeCompress maps the accepted spellings onto y, n or ask
func normalizeCompress(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "y", "yes", "true":
		return CompressYes
	case "n", "no", "false":
		return CompressNo
	}
	return s
}

// executableDir is the directory of the running binary
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// validate validates the configuration values
func validate(cfg *Config) error {
	if cfg.Download.Timeout <= 0 {
		return fmt.Errorf("download.timeout must be greater than 0")
	}

	if cfg.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be greater than 0")
	}

	if cfg.SQLite.BatchSize <= 0 {
		return fmt.Errorf("sqlite.batch_size must be greater than 0")
	}

	switch cfg.Output.Compress {
	case CompressYes, CompressNo, CompressAsk:
	default:
		return fmt.Errorf("invalid output.compress: %s (must be y, n, or ask)", cfg.Output.Compress)
	}

	for name, locators := range cfg.Datasets {
		if len(locators) == 0 {
			return fmt.Errorf("datasets.%s.urls must not be empty", name)
		}
		for _, loc := range locators {
			if err := validateLocator(loc); err != nil {
				return fmt.Errorf("datasets.%s.urls: %w", name, err)
			}
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}

func validateLocator(loc string) error {
	u, err := url.Parse(loc)
	if err != nil {
		return fmt.Errorf("invalid locator %q: %w", loc, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https", "http", "ftp":
	default:
		return fmt.Errorf("unsupported scheme in %q (must be https, http, or ftp)", loc)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", loc)
	}
	return nil
}
