package core

// parse.go decodes one uploaded CSV into a Dataset.
//
// Exports arrive from different desktop tools, so decoding is forgiving about
// encoding (UTF-8 BOM, Windows-1252 bytes) and ragged rows, and strict about
// the header: every column in InputColumns must be present.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding/charmap"
)

// Delimiter is the field separator used by the address exports.
const Delimiter = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dataset is one upload as read from disk: the header plus raw cell values.
// Rows are padded to the header width.
type Dataset struct {
	Name   string
	Header []string
	Rows   [][]string
	Lines  []int // source line of each row, for error messages

	index map[string]int
}

// NewDataset builds a dataset from a header and rows, padding short rows.
func NewDataset(name string, header []string, rows [][]string) *Dataset {
	ds := &Dataset{
		Name:   name,
		Header: header,
		Rows:   make([][]string, 0, len(rows)),
		Lines:  make([]int, 0, len(rows)),
		index:  makeHeaderIndex(header),
	}
	for i, row := range rows {
		ds.Rows = append(ds.Rows, padRow(row, len(header)))
		ds.Lines = append(ds.Lines, i+2)
	}
	return ds
}

// Column returns the position of a header column.
func (d *Dataset) Column(name string) (int, bool) {
	pos, ok := d.index[name]
	return pos, ok
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// CheckColumns returns a SchemaError if any expected input column is missing.
func (d *Dataset) CheckColumns() error {
	var missing []string
	for _, col := range InputColumns {
		if _, ok := d.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{File: d.Name, Missing: missing}
	}
	return nil
}

// ParseDataset decodes a semicolon-delimited upload and validates its header.
func ParseDataset(name string, data []byte) (*Dataset, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = Delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w header in %s: %w", ErrInvalidCSV, name, err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	ds := &Dataset{
		Name:   name,
		Header: header,
		index:  makeHeaderIndex(header),
	}
	if err := ds.CheckColumns(); err != nil {
		return nil, err
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w in %s: %w", ErrInvalidCSV, name, err)
		}
		if isBlankRecord(record) {
			continue
		}
		line, _ := r.FieldPos(0)
		ds.Rows = append(ds.Rows, padRow(record, len(header)))
		ds.Lines = append(ds.Lines, line)
	}

	return ds, nil
}

// decodeText rejects binary payloads, strips a UTF-8 BOM and converts
// Windows-1252 bytes (common in spreadsheet "Save as CSV" output) to UTF-8.
func decodeText(data []byte) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	if kind, _ := filetype.Match(data); kind != filetype.Unknown {
		return nil, fmt.Errorf("%w: detected %s content", ErrNotText, kind.Extension)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return decoded, nil
}

// makeHeaderIndex maps column names to positions. The first occurrence of a
// duplicated name wins.
func makeHeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
