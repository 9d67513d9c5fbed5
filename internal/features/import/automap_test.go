package import_feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func columns(titles ...string) []Column {
	cols := make([]Column, len(titles))
	for i, t := range titles {
		cols[i] = Column{Title: t}
	}
	return cols
}

func TestAutoMapAttendanceHeaders(t *testing.T) {
	grid := PreviewGrid{Columns: columns("Employee", "Date", "Status")}

	mapping := NewAutoMapper(DefaultSynonyms()).Map(EntityAttendance, grid, attendanceFields())

	assert.Equal(t, ColumnMapping{
		0: Field("employee"),
		1: Field("attendance_date"),
		2: Field("status"),
	}, mapping)
}

func TestAutoMapMatchOrder(t *testing.T) {
	fields := attendanceFields()
	grid := PreviewGrid{Columns: []Column{
		{Title: "Sr. No", RowIndex: true},
		{Title: "Whatever", Suggested: "out_time"},
		{Title: "Ghost", Suggested: "not_a_field"},
		{Title: "  ATTENDANCE_DATE "},
		{Title: "employee name"},
		{Title: "In"},
		{Title: "Mystery"},
	}}

	mapping := NewAutoMapper(DefaultSynonyms()).Map(EntityAttendance, grid, fields)

	_, hasIndex := mapping[0]
	assert.False(t, hasIndex, "row-index column gets no entry")
	assert.Equal(t, Field("out_time"), mapping[1], "backend suggestion wins")
	assert.Equal(t, Skip, mapping[2], "suggestions outside the field set are ignored")
	assert.Equal(t, Field("attendance_date"), mapping[3])
	assert.Equal(t, Field("employee_name"), mapping[4])
	assert.Equal(t, Field("in_time"), mapping[5])
	assert.Equal(t, Skip, mapping[6])
}

func TestAutoMapSynonymTargetMustBeKnown(t *testing.T) {
	fields := []TargetField{{Fieldname: "employee", Label: "Employee"}}
	grid := PreviewGrid{Columns: columns("Date")}

	mapping := NewAutoMapper(DefaultSynonyms()).Map(EntityAttendance, grid, fields)
	assert.Equal(t, Skip, mapping[0])
}

func TestAutoMapUsesInjectedSynonyms(t *testing.T) {
	synonyms := SynonymTable{"Lead": {"org": "company_name"}}
	fields := []TargetField{{Fieldname: "company_name", Label: "Company"}}

	mapping := NewAutoMapper(synonyms).Map("Lead", PreviewGrid{Columns: columns("ORG")}, fields)
	assert.Equal(t, Field("company_name"), mapping[0])
}

func TestAutoMapTemplateHeaders(t *testing.T) {
	mapping := NewAutoMapper(DefaultSynonyms()).Map(EntityAttendance, PreviewGrid{Columns: columns("Employee *", "Status *")}, attendanceFields())
	assert.Equal(t, ColumnMapping{0: Field("employee"), 1: Field("status")}, mapping)
}

func TestAutoMapResultIsWellFormed(t *testing.T) {
	fields := attendanceFields()
	known := map[string]bool{}
	for _, f := range fields {
		known[f.Fieldname] = true
	}

	headerSets := [][]Column{
		columns("Employee", "Date", "Status"),
		{{Title: "#", RowIndex: true}, {Title: "Name"}, {Title: "Check In"}, {Title: "Check Out"}},
		{{Title: "", RowIndex: true}, {Title: ""}, {Title: "x", Suggested: "bogus"}, {Title: "Shift Type"}},
		columns("employee", "employee", "EMPLOYEE"),
		{},
	}

	mapper := NewAutoMapper(DefaultSynonyms())
	for _, cols := range headerSets {
		grid := PreviewGrid{Columns: cols}
		mapping := mapper.Map(EntityAttendance, grid, fields)

		require.Len(t, mapping, len(grid.DataColumns()))
		for _, col := range grid.DataColumns() {
			target, ok := mapping[col]
			require.True(t, ok, "column %d has an entry", col)
			if !target.IsSkip() {
				assert.True(t, known[target.Fieldname()], "%s is a known field", target)
			}
		}
	}
}
