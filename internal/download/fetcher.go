package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrSourceUnavailable marks the failure of a single locator.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrAllSourcesFailed is returned once every locator has been tried.
	ErrAllSourcesFailed = errors.New("all download attempts failed")
)

// Transport copies the resource behind one locator into w
type Transport interface {
	Fetch(ctx context.Context, locator *url.URL, w io.Writer) error
}

// AttemptFunc is called after every locator attempt, err is nil on success
type AttemptFunc func(locator, scheme string, err error)

// Fetcher downloads a remote archive from an ordered list of candidate locators
type Fetcher struct {
	transports map[string]Transport
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithTransport registers t for the given URL scheme, replacing the default
func WithTransport(scheme string, t Transport) Option {
	return func(f *Fetcher) { f.transports[strings.ToLower(scheme)] = t }
}

// NewFetcher creates a fetcher with HTTPS and FTP transports bounded by timeout
func NewFetcher(timeout time.Duration, userAgent string, opts ...Option) *Fetcher {
	httpTransport := NewHTTPTransport(timeout, userAgent)
	f := &Fetcher{
		transports: map[string]Transport{
			"https": httpTransport,
			"http":  httpTransport,
			"ftp":   NewFTPTransport(timeout),
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch tries each locator in order and stops at the first one that fully
// materializes at dest. It returns the locator that succeeded. A failed attempt
// never leaves a partial file at dest. Every attempt is reported to observers.
func (f *Fetcher) Fetch(ctx context.Context, locators []string, dest string, observers ...AttemptFunc) (string, error) {
	if len(locators) == 0 {
		return "", fmt.Errorf("%w: no locators configured", ErrAllSourcesFailed)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	var errs []error
	for _, locator := range locators {
		slog.Info("Trying download", "url", locator)

		scheme, err := f.fetchOne(ctx, locator, dest)
		for _, observe := range observers {
			observe(locator, scheme, err)
		}
		if err == nil {
			slog.Info("Download complete", "url", locator, "path", dest)
			return locator, nil
		}

		slog.Warn("Download failed", "url", locator, "error", err)
		removePartial(dest)
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}

	return "", fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
}

func (f *Fetcher) fetchOne(ctx context.Context, locator, dest string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("%w: invalid locator %q: %w", ErrSourceUnavailable, locator, err)
	}

	scheme := strings.ToLower(u.Scheme)
	transport, ok := f.transports[scheme]
	if !ok {
		return scheme, fmt.Errorf("%w: unsupported scheme %q in %s", ErrSourceUnavailable, u.Scheme, locator)
	}

	//nolint:gosec // G304: dest is the configured scratch path
	out, err := os.Create(dest)
	if err != nil {
		return scheme, fmt.Errorf("%w: failed to create %s: %w", ErrSourceUnavailable, dest, err)
	}

	if err := transport.Fetch(ctx, u, out); err != nil {
		_ = out.Close()
		return scheme, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, locator, err)
	}

	if err := out.Close(); err != nil {
		return scheme, fmt.Errorf("%w: failed to close %s: %w", ErrSourceUnavailable, dest, err)
	}

	return scheme, nil
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to remove partial download", "path", path, "error", err)
	}
}
