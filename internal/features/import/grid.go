package import_feature

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go-crm-import/internal/frappe"
)

// CellKind tags the value held by a Cell.
type CellKind int

const (
	CellNull CellKind = iota
	CellText
	CellNumber
	CellBool
)

// Cell is one value of the preview grid.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Bool   bool
}

func NullCell() Cell            { return Cell{Kind: CellNull} }
func TextCell(s string) Cell    { return Cell{Kind: CellText, Text: s} }
func NumberCell(n float64) Cell { return Cell{Kind: CellNumber, Number: n} }
func BoolCell(b bool) Cell      { return Cell{Kind: CellBool, Bool: b} }

// CellFromAny converts a decoded JSON value.
func CellFromAny(v any) Cell {
	switch val := v.(type) {
	case nil:
		return NullCell()
	case string:
		return TextCell(val)
	case float64:
		return NumberCell(val)
	case int:
		return NumberCell(float64(val))
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return NumberCell(f)
		}
		return TextCell(val.String())
	case bool:
		return BoolCell(val)
	default:
		return TextCell(fmt.Sprint(val))
	}
}

// IsEmpty is the single definition of "missing" used by both the validator
// and the grid view. Numeric zero and false are values.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellNull:
		return true
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	default:
		return false
	}
}

// String is the form sent back to the backend.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellBool:
		if c.Bool {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellText:
		return json.Marshal(c.Text)
	case CellNumber:
		return json.Marshal(c.Number)
	case CellBool:
		return json.Marshal(c.Bool)
	default:
		return []byte("null"), nil
	}
}

// Column describes one preview column.
type Column struct {
	Title     string `json:"title"`
	Suggested string `json:"suggested,omitempty"` // backend-detected fieldname
	RowIndex  bool   `json:"row_index,omitempty"` // pure row-number column, never imported
}

// PreviewGrid is the editable rendition of the uploaded data. Every row has
// exactly len(Columns) cells.
type PreviewGrid struct {
	Columns []Column `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// DataColumns returns the indexes of columns that carry importable data.
func (g PreviewGrid) DataColumns() []int {
	cols := make([]int, 0, len(g.Columns))
	for i, c := range g.Columns {
		if !c.RowIndex {
			cols = append(cols, i)
		}
	}
	return cols
}

// fileColumn translates a preview column index into the column number of
// the underlying file, which has no row-index columns.
func (g PreviewGrid) fileColumn(col int) int {
	n := 0
	for i := 0; i < col && i < len(g.Columns); i++ {
		if !g.Columns[i].RowIndex {
			n++
		}
	}
	return n
}

// EditCell returns a grid with one cell replaced. The receiver is unchanged.
func (g PreviewGrid) EditCell(row, col int, value string) (PreviewGrid, error) {
	if row < 0 || row >= len(g.Rows) {
		return g, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	if col < 0 || col >= len(g.Columns) || g.Columns[col].RowIndex {
		return g, fmt.Errorf("%w: %d", ErrUnknownColumn, col)
	}

	rows := make([][]Cell, len(g.Rows))
	copy(rows, g.Rows)
	edited := make([]Cell, len(rows[row]))
	copy(edited, rows[row])
	edited[col] = TextCell(value)
	rows[row] = edited

	return PreviewGrid{Columns: g.Columns, Rows: rows}, nil
}

// DeleteRow returns a grid without the given row, preserving order.
func (g PreviewGrid) DeleteRow(row int) (PreviewGrid, error) {
	if row < 0 || row >= len(g.Rows) {
		return g, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	rows := make([][]Cell, 0, len(g.Rows)-1)
	rows = append(rows, g.Rows[:row]...)
	rows = append(rows, g.Rows[row+1:]...)
	return PreviewGrid{Columns: g.Columns, Rows: rows}, nil
}

var rowIndexTitles = map[string]bool{
	"":       true,
	"#":      true,
	"sr. no": true,
	"sr no":  true,
	"sr.no":  true,
	"s.no":   true,
	"row":    true,
}

func isRowIndexColumn(c frappe.PreviewColumn) bool {
	return bool(c.SkipImport) && c.DF == nil && rowIndexTitles[normalizeHeader(c.HeaderTitle)]
}

// gridFromPreview converts the backend preview, padding or truncating rows
// so every row matches the column count.
func gridFromPreview(p *frappe.ImportPreview) PreviewGrid {
	grid := PreviewGrid{
		Columns: make([]Column, len(p.Columns)),
		Rows:    make([][]Cell, 0, len(p.Data)),
	}

	for i, c := range p.Columns {
		col := Column{Title: c.HeaderTitle, RowIndex: isRowIndexColumn(c)}
		if !col.RowIndex {
			switch {
			case c.DF != nil && c.DF.Fieldname != "":
				col.Suggested = c.DF.Fieldname
			case c.MapToField != "" && c.MapToField != frappe.DontImport:
				col.Suggested = c.MapToField
			}
		}
		grid.Columns[i] = col
	}

	for _, raw := range p.Data {
		row := make([]Cell, len(grid.Columns))
		for i := range row {
			if i < len(raw) {
				row[i] = CellFromAny(raw[i])
			} else {
				row[i] = NullCell()
			}
		}
		grid.Rows = append(grid.Rows, row)
	}

	return grid
}

// CellFlag is the display state of a cell.
type CellFlag string

const (
	FlagNormal   CellFlag = "normal"
	FlagDimmed   CellFlag = "dimmed"
	FlagMissing  CellFlag = "missing"
	FlagRowIndex CellFlag = "row_index"
)

// ColumnView is a column as shown in the preview step.
type ColumnView struct {
	Index    int         `json:"index"`
	Title    string      `json:"title"`
	Target   FieldTarget `json:"target"`
	Skipped  bool        `json:"skipped"`
	Hidden   bool        `json:"hidden"`
	Required bool        `json:"required"`
	RowIndex bool        `json:"row_index"`
}

// GridView is the grid plus the per-cell display flags.
type GridView struct {
	Columns []ColumnView `json:"columns"`
	Rows    [][]Cell     `json:"rows"`
	Flags   [][]CellFlag `json:"flags"`
}

// RenderGrid computes display flags. Skipped columns are dimmed; empty cells
// of the column Validate checks for a required field are flagged missing.
// When several columns carry the same field only the lowest one is checked.
func RenderGrid(grid PreviewGrid, mapping ColumnMapping, hidden map[int]bool, fields []TargetField) GridView {
	checked := make(map[int]bool)
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if col, ok := mapping.ColumnFor(f.Fieldname); ok {
			checked[col] = true
		}
	}

	view := GridView{
		Columns: make([]ColumnView, len(grid.Columns)),
		Rows:    grid.Rows,
		Flags:   make([][]CellFlag, len(grid.Rows)),
	}

	for i, c := range grid.Columns {
		target := mapping[i]
		view.Columns[i] = ColumnView{
			Index:    i,
			Title:    c.Title,
			Target:   target,
			Skipped:  !c.RowIndex && target.IsSkip(),
			Hidden:   hidden[i],
			Required: checked[i],
			RowIndex: c.RowIndex,
		}
	}

	for r, row := range grid.Rows {
		flags := make([]CellFlag, len(row))
		for i, cell := range row {
			col := view.Columns[i]
			switch {
			case col.RowIndex:
				flags[i] = FlagRowIndex
			case col.Skipped:
				flags[i] = FlagDimmed
			case col.Required && cell.IsEmpty():
				flags[i] = FlagMissing
			default:
				flags[i] = FlagNormal
			}
		}
		view.Flags[r] = flags
	}

	return view
}
