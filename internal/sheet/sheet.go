// Package sheet renders normalized address tables as printable XLSX
// worksheets.
//
// Every list uses the same layout: 6pt text, a boxed header row that is
// frozen on screen and repeated on every printed page, landscape A4 with
// narrow margins, and the sheet name in the footer.
package sheet

import (
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JonMunkholm/listas/internal/core"
	"github.com/xuri/excelize/v2"
)

// Layout constants.
const (
	FontSize     = 6
	HeaderHeight = 20
	RowHeight    = 30
	WidthFactor  = 0.7

	// PaperA4 is the OOXML paper size code for A4.
	PaperA4 = 9

	// Margins in inches, the unit OOXML page margins are stored in.
	SideMargin     = 0.5 / 2.54
	VerticalMargin = 1.0 / 2.54

	// Footer prints the sheet name centered.
	Footer = "&C&A"

	// MaxNameLength is the longest sheet name Excel accepts.
	MaxNameLength = 31

	// DefaultName is used when a display name yields nothing usable.
	DefaultName = "Planilha"

	// Extension is appended to sheet names to form archive entry names.
	Extension = ".xlsx"
)

const defaultSheet = "Sheet1"

var invalidNameChars = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// Document is a single-sheet workbook built from one table.
type Document struct {
	Name string // sheet title
	Rows int    // data rows, header excluded

	file *excelize.File
}

// File exposes the underlying workbook.
func (d *Document) File() *excelize.File {
	return d.file
}

// WriteTo serializes the workbook as XLSX.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	return d.file.WriteTo(w)
}

// Close releases the workbook's temporary resources.
func (d *Document) Close() error {
	return d.file.Close()
}

// Name derives a sheet title from an upload name: the part after the last
// underscore with its extension removed, so "moradores_Quadra10.csv" becomes
// "Quadra10". Characters Excel rejects are replaced and the result is cut to
// 31 characters. It never fails; unusable input yields DefaultName.
func Name(displayName string) string {
	name := path.Base(strings.ReplaceAll(displayName, `\`, "/"))
	if name == "." || name == "/" {
		name = ""
	}
	if i := strings.LastIndex(name, "_"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, path.Ext(name))

	name = invalidNameChars.Replace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}
	// Excel rejects names that start or end with an apostrophe.
	name = strings.TrimFunc(name, func(r rune) bool {
		return r == '\'' || unicode.IsSpace(r)
	})
	if name == "" {
		return DefaultName
	}
	return name
}

// ColumnWidth returns the width for a column whose longest value has
// maxLen characters.
func ColumnWidth(maxLen int) float64 {
	return float64(maxLen+1) * WidthFactor
}

// Render builds the worksheet for a normalized table.
func Render(t *core.Table, displayName string) (*Document, error) {
	name := Name(displayName)

	if len(t.Columns) == 0 {
		return nil, &core.FormatError{Sheet: name, Reason: "table has no columns"}
	}
	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = row.Values()
		if len(rows[i]) != len(t.Columns) {
			return nil, &core.FormatError{
				Sheet:  name,
				Reason: fmt.Sprintf("row %d has %d cells, header has %d", i+1, len(rows[i]), len(t.Columns)),
			}
		}
	}

	f := excelize.NewFile()
	doc := &Document{Name: name, Rows: len(rows), file: f}

	if err := doc.build(t.Columns, rows); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w %q: %w", core.ErrRender, name, err)
	}
	return doc, nil
}

func (d *Document) build(columns []string, rows [][]any) error {
	f, name := d.file, d.Name

	if err := f.SetSheetName(defaultSheet, name); err != nil {
		return err
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &rows[i]); err != nil {
			return err
		}
	}

	if err := d.applyStyles(len(columns), len(rows)); err != nil {
		return err
	}
	if err := d.applyWidths(header, rows); err != nil {
		return err
	}
	return d.applyPageSetup()
}

// applyStyles sets fonts, borders and row heights.
func (d *Document) applyStyles(cols, rows int) error {
	f, name := d.file, d.Name

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: FontSize},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}
	dataStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: FontSize},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}

	lastHeader, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", lastHeader, headerStyle); err != nil {
		return err
	}
	if err := f.SetRowHeight(name, 1, HeaderHeight); err != nil {
		return err
	}

	if rows == 0 {
		return nil
	}
	lastCell, err := excelize.CoordinatesToCellName(cols, rows+1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A2", lastCell, dataStyle); err != nil {
		return err
	}
	for r := 2; r <= rows+1; r++ {
		if err := f.SetRowHeight(name, r, RowHeight); err != nil {
			return err
		}
	}
	return nil
}

// applyWidths sizes each column from its longest non-empty value, header
// included.
func (d *Document) applyWidths(header []any, rows [][]any) error {
	for c := range header {
		maxLen := cellLength(header[c])
		for _, row := range rows {
			if n := cellLength(row[c]); n > maxLen {
				maxLen = n
			}
		}

		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := d.file.SetColWidth(d.Name, col, col, ColumnWidth(maxLen)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) applyPageSetup() error {
	f, name := d.file, d.Name

	size, orientation := PaperA4, "landscape"
	if err := f.SetPageLayout(name, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
	}); err != nil {
		return err
	}

	side, vertical := SideMargin, VerticalMargin
	if err := f.SetPageMargins(name, &excelize.PageLayoutMarginsOptions{
		Left:   &side,
		Right:  &side,
		Top:    &vertical,
		Bottom: &vertical,
	}); err != nil {
		return err
	}

	if err := f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
		Selection: []excelize.Selection{
			{SQRef: "A2", ActiveCell: "A2", Pane: "bottomLeft"},
		},
	}); err != nil {
		return err
	}

	if err := f.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Titles",
		RefersTo: quoteSheet(name) + "!$1:$1",
		Scope:    name,
	}); err != nil {
		return err
	}

	return f.SetHeaderFooter(name, &excelize.HeaderFooterOptions{
		OddFooter: Footer,
	})
}

// cellLength is the display length of a cell; missing and empty cells count
// as zero.
func cellLength(v any) int {
	if v == nil {
		return 0
	}
	return utf8.RuneCountInString(fmt.Sprint(v))
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
