package import_feature

import "strings"

// AutoMapper seeds the initial column mapping for a freshly uploaded file.
type AutoMapper struct {
	synonyms SynonymTable
}

func NewAutoMapper(synonyms SynonymTable) *AutoMapper {
	if synonyms == nil {
		synonyms = SynonymTable{}
	}
	return &AutoMapper{synonyms: synonyms}
}

// Map assigns every data-bearing column of grid a target. Row-index columns
// get no entry. Candidates are tried in order: the backend suggestion, an
// exact header match, the entity synonym table, then Skip. A candidate is
// only accepted when it names one of fields.
func (a *AutoMapper) Map(entity string, grid PreviewGrid, fields []TargetField) ColumnMapping {
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Fieldname] = true
	}

	mapping := make(ColumnMapping, len(grid.Columns))
	for i, col := range grid.Columns {
		if col.RowIndex {
			continue
		}
		mapping[i] = a.matchColumn(entity, col, fields, known)
	}
	return mapping
}

func (a *AutoMapper) matchColumn(entity string, col Column, fields []TargetField, known map[string]bool) FieldTarget {
	if col.Suggested != "" && known[col.Suggested] {
		return Field(col.Suggested)
	}

	header := normalizeHeader(col.Title)
	if header == "" {
		return Skip
	}

	for _, f := range fields {
		if header == normalizeHeader(f.Label) ||
			header == normalizeHeader(f.Fieldname) ||
			header == strings.ReplaceAll(normalizeHeader(f.Fieldname), "_", " ") {
			return Field(f.Fieldname)
		}
	}

	if field, ok := a.synonyms.Lookup(entity, header); ok && known[field] {
		return Field(field)
	}

	return Skip
}
