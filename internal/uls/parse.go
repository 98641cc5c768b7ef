// Package uls parses pipe-delimited ULS registry extracts.
package uls

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Delimiter separates fields on a payload line
const Delimiter = "|"

// Fields is a parsed record: field name to trimmed value
type Fields map[string]string

// MapFunc turns the tokens of one line into a record. It reports false
// when the line carries no addressable record.
type MapFunc[T any] func(tokens []string) (T, bool)

// Stats summarises one parse
type Stats struct {
	Lines   int // Non-empty lines read
	Parsed  int // Lines that produced a record
	Dropped int // Lines rejected by the mapper
}

// Parse reads r as ISO-8859-1 text and calls emit for every record produced by
// mapFn, in file order. Malformed lines never fail the parse.
func Parse[T any](r io.Reader, mapFn MapFunc[T], emit func(T)) (Stats, error) {
	var stats Stats

	reader := bufio.NewReaderSize(charmap.ISO8859_1.NewDecoder().Reader(r), 64*1024)

	for {
		// Lines have no length limit
		raw, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return stats, fmt.Errorf("failed to read payload after %d lines: %w", stats.Lines, err)
		}

		if line := strings.TrimSpace(raw); line != "" {
			stats.Lines++
			if rec, ok := mapFn(SplitLine(line)); ok {
				stats.Parsed++
				emit(rec)
			} else {
				stats.Dropped++
			}
		}

		if err != nil {
			return stats, nil
		}
	}
}

// SplitLine splits a payload line on the delimiter and trims every token
func SplitLine(line string) []string {
	tokens := strings.Split(strings.TrimSpace(line), Delimiter)
	for i, tok := range tokens {
		tokens[i] = strings.TrimSpace(tok)
	}
	return tokens
}

// Pad right-pads tokens with empty strings up to n entries
func Pad(tokens []string, n int) []string {
	if len(tokens) >= n {
		return tokens
	}
	padded := make([]string, n)
	copy(padded, tokens)
	return padded
}

// Align maps tokens onto names by position. Missing trailing tokens become "".
func Align(names []string, tokens []string) Fields {
	tokens = Pad(tokens, len(names))
	fields := make(Fields, len(names))
	for i, name := range names {
		fields[name] = tokens[i]
	}
	return fields
}

// Offset names a single token position
type Offset struct {
	Name  string
	Index int
}

// AlignOffsets picks named tokens at sparse positions. Offsets past the end
// of the line become "".
func AlignOffsets(offsets []Offset, tokens []string) Fields {
	fields := make(Fields, len(offsets))
	for _, o := range offsets {
		if o.Index < len(tokens) {
			fields[o.Name] = tokens[o.Index]
		} else {
			fields[o.Name] = ""
		}
	}
	return fields
}

// CorrectFRN returns the FRN found at idx. The registry sometimes emits the
// placeholder "000" there with the real number in the next column; in that case
// the next token is used when it is non-empty and not itself the placeholder.
func CorrectFRN(tokens []string, idx int) string {
	if idx < 0 || idx >= len(tokens) {
		return ""
	}
	frn := tokens[idx]
	if frn != frnPlaceholder || idx+1 >= len(tokens) {
		return frn
	}
	if next := strings.TrimSpace(tokens[idx+1]); next != "" && next != frnPlaceholder {
		return next
	}
	return frn
}

const frnPlaceholder = "000"

// truncate keeps the first n characters of s
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
