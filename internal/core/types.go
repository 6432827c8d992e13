package core

// Input column names, exactly as they appear in the exported CSV header.
const (
	ColSeq         = "SEQ_UV"
	ColFace        = "FACE"
	ColBlock       = "QUADRA"
	ColStreet      = "LOGRADOURO"
	ColAddress     = "ENDERECO"
	ColReference   = "PONTO DE REFERENCIA"
	ColLocality    = "LOCALIDADE"
	ColSpecies     = "ESPECIE"
	ColResponsible = "NOME_RESPONSAVEL_1"
	ColPhone       = "TELEFONE_1"
)

// Display labels for the block and face columns in the rendered list.
const (
	LabelBlock = "Q"
	LabelFace  = "F"
)

// InputColumns lists every column an upload must carry.
var InputColumns = []string{
	ColSeq, ColFace, ColBlock, ColStreet, ColAddress,
	ColReference, ColLocality, ColSpecies, ColResponsible, ColPhone,
}

// OutputColumns is the fixed header of a normalized table, in display order.
var OutputColumns = []string{
	LabelBlock, LabelFace, ColStreet, ColAddress, ColReference,
	ColLocality, ColSpecies, ColResponsible, ColPhone,
}

// Text is a free-text cell. Valid is false when the file left the cell empty.
type Text struct {
	String string
	Valid  bool
}

// NewText wraps a raw cell value. Empty strings become missing values;
// whitespace-only strings are kept as-is.
func NewText(s string) Text {
	if s == "" {
		return Text{}
	}
	return Text{String: s, Valid: true}
}

// Value returns the cell for spreadsheet output: nil when missing.
func (t Text) Value() any {
	if !t.Valid {
		return nil
	}
	return t.String
}

// Row is one normalized record with the nine output fields.
type Row struct {
	Block       int
	Face        int
	Seq         int // sort key only, not displayed
	Street      Text
	Address     Text
	Reference   Text
	Locality    Text
	Species     Text
	Responsible Text
	Phone       Text
}

// Values returns the row's cells in OutputColumns order.
func (r Row) Values() []any {
	return []any{
		r.Block,
		r.Face,
		r.Street.Value(),
		r.Address.Value(),
		r.Reference.Value(),
		r.Locality.Value(),
		r.Species.Value(),
		r.Responsible.Value(),
		r.Phone.Value(),
	}
}

// Table is the normalized form of one upload, ready for rendering.
type Table struct {
	Name    string   // upload name the table came from
	Columns []string // always OutputColumns
	Rows    []Row
}
