package import_feature

// Validate checks that every row has a value for every required field that
// some column is mapped to. It stops at the first failure, walking fields in
// the given order and rows top to bottom. A required field no column maps
// to is not checked.
func Validate(grid PreviewGrid, mapping ColumnMapping, fields []TargetField) error {
	if len(grid.Rows) == 0 {
		return nil
	}

	for _, f := range fields {
		if !f.Required {
			continue
		}
		col, ok := mapping.ColumnFor(f.Fieldname)
		if !ok || col < 0 || col >= len(grid.Columns) {
			continue
		}
		for r, row := range grid.Rows {
			if col >= len(row) || row[col].IsEmpty() {
				return &ValidationError{Row: r + 1, Fieldname: f.Fieldname, FieldLabel: f.DisplayLabel()}
			}
		}
	}
	return nil
}
