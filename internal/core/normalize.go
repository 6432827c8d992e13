package core

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize converts a parsed dataset into the display table.
//
// Identifier columns are coerced for every row before anything else, so one
// bad value fails the whole dataset. Rows are then stably sorted by
// (block, face, sequence), projected to OutputColumns and the species column
// is rewritten with Initialism. The input dataset is not modified.
func Normalize(ds *Dataset) (*Table, error) {
	if err := ds.CheckColumns(); err != nil {
		return nil, err
	}

	pos := make(map[string]int, len(InputColumns))
	for _, col := range InputColumns {
		pos[col], _ = ds.Column(col)
	}

	rows := make([]Row, len(ds.Rows))
	for i, raw := range ds.Rows {
		line := 0
		if i < len(ds.Lines) {
			line = ds.Lines[i]
		}

		cell := func(col string) string {
			if p := pos[col]; p < len(raw) {
				return raw[p]
			}
			return ""
		}

		var err error
		row := &rows[i]
		if row.Block, err = parseIdentifier(ds.Name, line, ColBlock, cell(ColBlock)); err != nil {
			return nil, err
		}
		if row.Face, err = parseIdentifier(ds.Name, line, ColFace, cell(ColFace)); err != nil {
			return nil, err
		}
		if row.Seq, err = parseIdentifier(ds.Name, line, ColSeq, cell(ColSeq)); err != nil {
			return nil, err
		}

		row.Street = NewText(cell(ColStreet))
		row.Address = NewText(cell(ColAddress))
		row.Reference = NewText(cell(ColReference))
		row.Locality = NewText(cell(ColLocality))
		row.Species = NewText(cell(ColSpecies))
		row.Responsible = NewText(cell(ColResponsible))
		row.Phone = NewText(cell(ColPhone))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rowLess(rows[i], rows[j])
	})

	for i := range rows {
		if rows[i].Species.Valid {
			rows[i].Species.String = Initialism(rows[i].Species.String)
		}
	}

	columns := make([]string, len(OutputColumns))
	copy(columns, OutputColumns)

	return &Table{
		Name:    ds.Name,
		Columns: columns,
		Rows:    rows,
	}, nil
}

// rowLess orders rows by block, then face, then sequence, all ascending.
func rowLess(a, b Row) bool {
	if a.Block != b.Block {
		return a.Block < b.Block
	}
	if a.Face != b.Face {
		return a.Face < b.Face
	}
	return a.Seq < b.Seq
}

// parseIdentifier reads an integer identifier. Integral decimals such as
// "12.0" are accepted since spreadsheet exports sometimes write them that way.
func parseIdentifier(file string, line int, column, raw string) (int, error) {
	s := strings.TrimSpace(raw)
	n, err := strconv.Atoi(s)
	if err == nil {
		return n, nil
	}

	if f, ferr := strconv.ParseFloat(s, 64); ferr == nil &&
		f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32 {
		return int(f), nil
	}

	if s == "" {
		err = errors.New("empty value")
	}
	return 0, &TypeError{File: file, Line: line, Column: column, Value: raw, Err: err}
}

// Initialism abbreviates a phrase to the uppercased first letter of each
// whitespace-separated word: "Casa Residencial" becomes "CR". Accents are
// dropped from the initials, so "Único" becomes "U". Blank input is returned
// unchanged.
func Initialism(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}

	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	var b strings.Builder
	for _, word := range strings.Fields(s) {
		first := []rune(word)[0]
		initial, _, err := transform.String(fold, string(first))
		if err != nil || initial == "" {
			initial = string(first)
		}
		b.WriteString(strings.ToUpper(initial))
	}
	return b.String()
}
