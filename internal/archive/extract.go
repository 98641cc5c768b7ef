package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrOpenArchive is returned when the downloaded file is not a readable zip archive.
	ErrOpenArchive = errors.New("cannot open archive")
	// ErrNoPayload is returned when no entry matches the payload name pattern.
	ErrNoPayload = errors.New("no matching payload in archive")
	// ErrAmbiguousPayload is returned when more than one entry matches.
	ErrAmbiguousPayload = errors.New("more than one matching payload in archive")
)

// maxPayloadSize caps extraction to guard against decompression bombs
const maxPayloadSize = 4 << 30

// Pattern selects the payload entry by case-insensitive prefix and suffix
type Pattern struct {
	Prefix string
	Suffix string
}

// Matches reports whether an entry name fits the pattern
func (p Pattern) Matches(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, strings.ToLower(p.Prefix)) &&
		strings.HasSuffix(lower, strings.ToLower(p.Suffix))
}

// ExtractPayload extracts the single entry of archivePath matching pattern into
// destDir and returns the extracted file path. The archive is removed before
// returning, whatever the outcome.
func ExtractPayload(archivePath, destDir string, pattern Pattern) (string, error) {
	defer func() {
		if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove archive", "path", archivePath, "error", err)
		}
	}()

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrOpenArchive, archivePath, err)
	}
	//nolint:errcheck // Defer close on read-only archive
	defer zr.Close()

	var matches []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !pattern.Matches(f.Name) {
			slog.Info("Skipping archive entry", "entry", f.Name)
			continue
		}
		matches = append(matches, f)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: want %s*%s in %s", ErrNoPayload, pattern.Prefix, pattern.Suffix, filepath.Base(archivePath))
	case 1:
	default:
		names := make([]string, len(matches))
		for i, f := range matches {
			names[i] = f.Name
		}
		return "", fmt.Errorf("%w: %s", ErrAmbiguousPayload, strings.Join(names, ", "))
	}

	return extractFile(matches[0], destDir)
}

func extractFile(f *zip.File, destDir string) (string, error) {
	//nolint:gosec // G305: Path traversal validated by Rel check below
	target := filepath.Join(destDir, f.Name)
	if rel, err := filepath.Rel(destDir, target); err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid file path in archive: %s", f.Name)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return "", fmt.Errorf("failed to create parent directory: %w", err)
	}

	if f.UncompressedSize64 > maxPayloadSize {
		return "", fmt.Errorf("%w: entry %s is %d bytes, limit is %d", ErrOpenArchive, f.Name, f.UncompressedSize64, int64(maxPayloadSize))
	}

	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("%w: failed to open entry %s: %w", ErrOpenArchive, f.Name, err)
	}
	//nolint:errcheck // Defer close on entry reader
	defer rc.Close()

	//nolint:gosec // G304: target is confined to destDir
	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", target, err)
	}

	n, err := io.Copy(out, io.LimitReader(rc, maxPayloadSize+1))
	if err == nil && n > maxPayloadSize {
		err = fmt.Errorf("payload exceeds %d bytes", int64(maxPayloadSize))
	}
	if err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to close %s: %w", target, err)
	}

	slog.Info("Extracted payload", "entry", f.Name, "path", target)
	return target, nil
}
