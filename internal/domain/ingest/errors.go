// Package ingest holds the shared error taxonomy for statement ingestion.
// Sniffing and parsing both report failures through these types so callers
// can distinguish terminal input problems from transient ones.
package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat means the input bytes match none of the supported
// statement formats (CSV, XLSX, PDF).
var ErrUnsupportedFormat = errors.New("unsupported statement format")

// ErrEmptyFile means the input had no bytes at all.
var ErrEmptyFile = errors.New("file is empty")

// EncodingError reports that no candidate encoding produced valid text.
type EncodingError struct {
	Tried []string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("could not decode file text, tried encodings: %s", strings.Join(e.Tried, ", "))
}

// MissingColumnsError reports which required columns the header row lacks.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("statement is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// NoTransactionsFoundError means the file was readable but no row survived
// parsing. Skipped carries how many rows were dropped and why parsing gave up.
type NoTransactionsFoundError struct {
	Skipped int
	Reason  string
}

func (e *NoTransactionsFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("no transactions found: %s (%d rows skipped)", e.Reason, e.Skipped)
	}
	return fmt.Sprintf("no transactions found (%d rows skipped)", e.Skipped)
}

// RowError records a single row that failed to parse. Files keep processing
// past row errors; they surface as warnings on the batch.
type RowError struct {
	Row    int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}
