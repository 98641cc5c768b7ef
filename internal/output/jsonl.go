// Package output writes record collections as line-delimited JSON.
package output

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"uls_etl/internal/records"
)

// GzipSuffix is appended to the output path when compression is on
const GzipSuffix = ".gz"

// Path returns the file a serialization of base will produce
func Path(base string, compress bool) string {
	if compress {
		return base + GzipSuffix
	}
	return base
}

// Encode writes one compact JSON object per record, one per line, in
// collection order. Non-ASCII and HTML characters are written unescaped.
func Encode[T any](w io.Writer, recs records.Collection[T]) (int, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	written := 0
	err := recs.Each(func(rec T) error {
		if err := enc.Encode(rec); err != nil {
			return err
		}
		written++
		return nil
	})
	return written, err
}

// WriteFile serializes recs to base, or base+".gz" through a gzip sink when
// compress is set. It returns the final path and the number of records written.
func WriteFile[T any](base string, recs records.Collection[T], compress bool) (string, int, error) {
	path := Path(base, compress)

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return path, 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	//nolint:gosec // G304: output path comes from configuration
	file, err := os.Create(path)
	if err != nil {
		return path, 0, fmt.Errorf("failed to create %s: %w", path, err)
	}

	n, err := writeTo(file, recs, compress)
	if err != nil {
		_ = file.Close()
		return path, n, fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return path, n, fmt.Errorf("failed to close %s: %w", path, err)
	}

	return path, n, nil
}

func writeTo[T any](file io.Writer, recs records.Collection[T], compress bool) (int, error) {
	var gz *gzip.Writer
	sink := file
	if compress {
		gz = gzip.NewWriter(file)
		sink = gz
	}

	buf := bufio.NewWriter(sink)
	n, err := Encode(buf, recs)
	if err != nil {
		return n, err
	}
	if err := buf.Flush(); err != nil {
		return n, err
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			return n, err
		}
	}

	return n, nil
}
