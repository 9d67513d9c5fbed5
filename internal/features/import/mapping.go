package import_feature

import "fmt"

// MappingEditor holds the user-adjustable mapping for one job along with the
// view-only hidden-column overlay.
type MappingEditor struct {
	fields  map[string]TargetField
	mapping ColumnMapping
	hidden  map[int]bool
}

func NewMappingEditor(initial ColumnMapping, fields []TargetField) *MappingEditor {
	byName := make(map[string]TargetField, len(fields))
	for _, f := range fields {
		byName[f.Fieldname] = f
	}
	return &MappingEditor{
		fields:  byName,
		mapping: initial.Clone(),
		hidden:  make(map[int]bool),
	}
}

// Mapping returns a copy of the current mapping.
func (e *MappingEditor) Mapping() ColumnMapping {
	return e.mapping.Clone()
}

// Hidden returns a copy of the hidden-column overlay.
func (e *MappingEditor) Hidden() map[int]bool {
	out := make(map[int]bool, len(e.hidden))
	for k := range e.hidden {
		out[k] = true
	}
	return out
}

// Set assigns target to column. Columns outside the mapping and fieldnames
// outside the known field set are rejected and leave the mapping untouched.
// Mapping a hidden column to a field shows it again.
func (e *MappingEditor) Set(column int, target FieldTarget) (ColumnMapping, error) {
	if _, ok := e.mapping[column]; !ok {
		return e.Mapping(), fmt.Errorf("%w: %d", ErrUnknownColumn, column)
	}
	if !target.IsSkip() {
		if _, ok := e.fields[target.Fieldname()]; !ok {
			return e.Mapping(), fmt.Errorf("%w: %s", ErrUnknownField, target.Fieldname())
		}
		delete(e.hidden, column)
	}
	e.mapping[column] = target
	return e.Mapping(), nil
}

// Hide removes column from the editing surface and maps it to Skip.
func (e *MappingEditor) Hide(column int) (ColumnMapping, error) {
	if _, ok := e.mapping[column]; !ok {
		return e.Mapping(), fmt.Errorf("%w: %d", ErrUnknownColumn, column)
	}
	e.hidden[column] = true
	e.mapping[column] = Skip
	return e.Mapping(), nil
}

// ShowAll clears the overlay. Columns hidden earlier stay mapped to Skip.
func (e *MappingEditor) ShowAll() {
	e.hidden = make(map[int]bool)
}

// Reconcile replaces the mapping after a new preview. Columns that are
// still present keep their value; new columns take the suggestion.
func (e *MappingEditor) Reconcile(next ColumnMapping) {
	merged := make(ColumnMapping, len(next))
	for col, target := range next {
		if prev, ok := e.mapping[col]; ok {
			merged[col] = prev
		} else {
			merged[col] = target
		}
	}
	for col := range e.hidden {
		if _, ok := merged[col]; !ok {
			delete(e.hidden, col)
		}
	}
	e.mapping = merged
}
