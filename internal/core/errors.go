package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyFile is returned for uploads with no bytes or no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrNotText is returned when an upload's magic number identifies a
	// binary format (spreadsheet, archive, image...) instead of CSV text.
	ErrNotText = errors.New("not a text file")

	// ErrInvalidCSV wraps reader failures on malformed CSV or form bodies.
	ErrInvalidCSV = errors.New("invalid csv")

	// ErrEncoding is returned when text cannot be decoded as UTF-8 or
	// Windows-1252.
	ErrEncoding = errors.New("encoding error")

	ErrFileTooLarge = errors.New("file too large")
	ErrNoFiles      = errors.New("no file provided")
	ErrTooManyFiles = errors.New("too many files")

	// ErrBusy is returned when all batch slots are occupied and the wait
	// timeout expires.
	ErrBusy = errors.New("too many batches in progress, please try again later")

	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrRender and ErrArchive prefix failures of the spreadsheet and ZIP
	// writers.
	ErrRender  = errors.New("render sheet")
	ErrArchive = errors.New("build archive")
)

// TypeError reports an identifier cell that cannot be read as an integer.
// A single TypeError aborts normalization of the whole dataset.
type TypeError struct {
	File   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *TypeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid integer %q in column %s", e.Value, e.Column)
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.File != "" {
		fmt.Fprintf(&b, " of %s", e.File)
	}
	return b.String()
}

func (e *TypeError) Unwrap() error {
	return e.Err
}

// SchemaError reports expected input columns missing from a header.
type SchemaError struct {
	File    string
	Missing []string
}

func (e *SchemaError) Error() string {
	msg := "missing required column(s): " + strings.Join(e.Missing, ", ")
	if e.File != "" {
		msg += " in " + e.File
	}
	return msg
}

// FormatError reports a table whose shape does not match the sheet layout.
type FormatError struct {
	Sheet  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("sheet format error in %q: %s", e.Sheet, e.Reason)
}
