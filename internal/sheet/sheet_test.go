package sheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/listas/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"moradores_Quadra10.csv", "Quadra10"},
		{"lista.csv", "lista"},
		{"a_b_c_Setor 4.csv", "Setor 4"},
		{"Quadra10", "Quadra10"},
		{"moradores_.csv", DefaultName},
		{"", DefaultName},
		{"dir/sub/moradores_Q7.csv", "Q7"},
		{`C:\Users\ana\moradores_Q8.csv`, "Q8"},
		{"lista_Q[1]:2?.csv", "Q_1__2_"},
		{"lista_" + "abcdefghijklmnopqrstuvwxyz0123456789.csv", "abcdefghijklmnopqrstuvwxyz01234"},
		{"lista_'quoted'.csv", "quoted"},
		{"lista_" + strings.Repeat("a", 30) + "'b.csv", strings.Repeat("a", 30)},
		{"lista_" + strings.Repeat("a", 30) + " b.csv", strings.Repeat("a", 30)},
		{"lista_ ' ' .csv", DefaultName},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.input))
		})
	}
}

func TestColumnWidth(t *testing.T) {
	assert.InDelta(t, 7.7, ColumnWidth(10), 1e-9)
	assert.InDelta(t, 0.7, ColumnWidth(0), 1e-9)
	assert.InDelta(t, 14.0, ColumnWidth(19), 1e-9)
}

func sampleTable() *core.Table {
	return &core.Table{
		Name:    "moradores_Quadra10.csv",
		Columns: append([]string(nil), core.OutputColumns...),
		Rows: []core.Row{
			{
				Block: 10, Face: 1, Seq: 1,
				Street:      core.NewText("Rua A"),
				Address:     core.NewText("120"),
				Locality:    core.NewText("Centro"),
				Species:     core.NewText("CR"),
				Responsible: core.NewText("Maria da Conceição"),
				Phone:       core.NewText("81999990000"),
			},
			{
				Block: 10, Face: 2, Seq: 3,
				Street:      core.NewText("Rua B"),
				Address:     core.NewText("7"),
				Reference:   core.NewText("Escola"),
				Locality:    core.NewText("Centro"),
				Responsible: core.NewText("Ana"),
				Phone:       core.NewText("3333"),
			},
		},
	}
}

// reopen serializes a document and reads it back.
func reopen(t *testing.T, doc *Document) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	_, err := doc.WriteTo(&buf)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRender_Content(t *testing.T) {
	doc, err := Render(sampleTable(), "moradores_Quadra10.csv")
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, "Quadra10", doc.Name)
	assert.Equal(t, 2, doc.Rows)

	f := reopen(t, doc)
	assert.Equal(t, []string{"Quadra10"}, f.GetSheetList())

	rows, err := f.GetRows("Quadra10")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, core.OutputColumns, rows[0])
	assert.Equal(t, []string{"10", "1", "Rua A", "120", "", "Centro", "CR", "Maria da Conceição", "81999990000"}, rows[1])
	assert.Equal(t, []string{"10", "2", "Rua B", "7", "Escola", "Centro", "", "Ana", "3333"}, rows[2])
}

func TestRender_ColumnWidths(t *testing.T) {
	doc, err := Render(sampleTable(), "moradores_Quadra10.csv")
	require.NoError(t, err)
	defer doc.Close()

	f := reopen(t, doc)
	want := map[string]int{
		"A": 2,  // "Q" header vs "10"
		"C": 10, // "LOGRADOURO"
		"E": 19, // "PONTO DE REFERENCIA"
		"H": 18, // "NOME_RESPONSAVEL_1" and "Maria da Conceição"
		"I": 11, // "81999990000"
	}
	for col, maxLen := range want {
		width, err := f.GetColWidth("Quadra10", col)
		require.NoError(t, err)
		assert.InDelta(t, ColumnWidth(maxLen), width, 1e-6, "column %s", col)
	}
}

func TestRender_RowsAndStyles(t *testing.T) {
	doc, err := Render(sampleTable(), "moradores_Quadra10.csv")
	require.NoError(t, err)
	defer doc.Close()

	f := reopen(t, doc)

	height, err := f.GetRowHeight("Quadra10", 1)
	require.NoError(t, err)
	assert.InDelta(t, HeaderHeight, height, 1e-6)
	for _, r := range []int{2, 3} {
		height, err := f.GetRowHeight("Quadra10", r)
		require.NoError(t, err)
		assert.InDelta(t, RowHeight, height, 1e-6)
	}

	borders := func(cell string) (float64, map[string]int) {
		id, err := f.GetCellStyle("Quadra10", cell)
		require.NoError(t, err)
		style, err := f.GetStyle(id)
		require.NoError(t, err)
		require.NotNil(t, style.Font)
		sides := make(map[string]int)
		for _, b := range style.Border {
			sides[b.Type] = b.Style
		}
		return style.Font.Size, sides
	}

	size, sides := borders("C1")
	assert.InDelta(t, FontSize, size, 1e-6)
	assert.Equal(t, map[string]int{"left": 1, "right": 1, "top": 1, "bottom": 1}, sides)

	size, sides = borders("I3")
	assert.InDelta(t, FontSize, size, 1e-6)
	assert.Equal(t, map[string]int{"bottom": 1}, sides)
}

func TestRender_PageSetup(t *testing.T) {
	doc, err := Render(sampleTable(), "moradores_Quadra10.csv")
	require.NoError(t, err)
	defer doc.Close()

	f := reopen(t, doc)

	layout, err := f.GetPageLayout("Quadra10")
	require.NoError(t, err)
	require.NotNil(t, layout.Orientation)
	require.NotNil(t, layout.Size)
	assert.Equal(t, "landscape", *layout.Orientation)
	assert.Equal(t, PaperA4, *layout.Size)

	margins, err := f.GetPageMargins("Quadra10")
	require.NoError(t, err)
	require.NotNil(t, margins.Left)
	require.NotNil(t, margins.Top)
	assert.InDelta(t, 0.5/2.54, *margins.Left, 1e-6)
	assert.InDelta(t, 0.5/2.54, *margins.Right, 1e-6)
	assert.InDelta(t, 1.0/2.54, *margins.Top, 1e-6)
	assert.InDelta(t, 1.0/2.54, *margins.Bottom, 1e-6)

	panes, err := f.GetPanes("Quadra10")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
	assert.Equal(t, "A2", panes.TopLeftCell)

	var titles []excelize.DefinedName
	for _, dn := range f.GetDefinedName() {
		if dn.Name == "_xlnm.Print_Titles" {
			titles = append(titles, dn)
		}
	}
	require.Len(t, titles, 1)
	assert.Equal(t, "Quadra10", titles[0].Scope)
	assert.Contains(t, titles[0].RefersTo, "$1:$1")
}

func TestRender_EmptyTable(t *testing.T) {
	table := &core.Table{Columns: append([]string(nil), core.OutputColumns...)}

	doc, err := Render(table, "lista.csv")
	require.NoError(t, err)
	defer doc.Close()

	f := reopen(t, doc)
	rows, err := f.GetRows("lista")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, core.OutputColumns, rows[0])
}

func TestRender_ApostropheAtCut(t *testing.T) {
	table := &core.Table{Columns: append([]string(nil), core.OutputColumns...)}
	want := strings.Repeat("a", 30)

	doc, err := Render(table, "lista_"+want+"'b.csv")
	require.NoError(t, err)
	defer doc.Close()
	assert.Equal(t, want, doc.Name)

	f := reopen(t, doc)
	assert.Equal(t, []string{want}, f.GetSheetList())
}

func TestRender_FormatError(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
	}{
		{"no columns", nil},
		{"header narrower than rows", core.OutputColumns[:3]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := sampleTable()
			table.Columns = tt.columns

			_, err := Render(table, "lista.csv")
			var formatErr *core.FormatError
			require.True(t, errors.As(err, &formatErr), "got %v", err)
			assert.Equal(t, "lista", formatErr.Sheet)
			assert.Equal(t, "SHEET001", core.MapError(err).Code)
		})
	}
}
