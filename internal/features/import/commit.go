package import_feature

import (
	"strconv"

	"go-crm-import/internal/frappe"
)

// OutboundImport is the re-indexed data sent to the backend on commit.
type OutboundImport struct {
	// Grid holds the header row followed by the data rows.
	Grid [][]string
	// Mapping is keyed by the contiguous outbound column index.
	Mapping ColumnMapping
}

// BuildOutbound drops row-index and skipped columns and re-indexes what is
// left from 0, carrying each column's field over to its new position.
func BuildOutbound(grid PreviewGrid, mapping ColumnMapping) OutboundImport {
	keep := make([]int, 0, len(grid.Columns))
	for i, col := range grid.Columns {
		if col.RowIndex {
			continue
		}
		if target, ok := mapping[i]; !ok || target.IsSkip() {
			continue
		}
		keep = append(keep, i)
	}

	out := OutboundImport{
		Grid:    make([][]string, 0, len(grid.Rows)+1),
		Mapping: make(ColumnMapping, len(keep)),
	}

	header := make([]string, len(keep))
	for j, i := range keep {
		header[j] = grid.Columns[i].Title
		out.Mapping[j] = mapping[i]
	}
	out.Grid = append(out.Grid, header)

	for _, row := range grid.Rows {
		cells := make([]string, len(keep))
		for j, i := range keep {
			if i < len(row) {
				cells[j] = row[i].String()
			}
		}
		out.Grid = append(out.Grid, cells)
	}

	return out
}

// templateOptions renders a mapping in the backend's column_to_field_map form.
func templateOptions(mapping ColumnMapping) frappe.TemplateOptions {
	m := make(map[string]string, len(mapping))
	for col, target := range mapping {
		if target.IsSkip() {
			m[strconv.Itoa(col)] = frappe.DontImport
		} else {
			m[strconv.Itoa(col)] = target.Fieldname()
		}
	}
	return frappe.TemplateOptions{ColumnToFieldMap: m}
}

// fileMapping re-keys a preview mapping by file column, which is what the
// backend expects before the file has been rewritten.
func fileMapping(grid PreviewGrid, mapping ColumnMapping) ColumnMapping {
	out := make(ColumnMapping, len(mapping))
	for col, target := range mapping {
		out[grid.fileColumn(col)] = target
	}
	return out
}
