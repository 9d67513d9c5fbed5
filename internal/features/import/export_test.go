package import_feature

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportLogs(t *testing.T) {
	data, err := ExportLogs([]ImportLogEntry{
		{RowIndexes: []int{2, 3}, Success: true, Docname: "HR-ATT-0001"},
		{RowIndexes: []int{4}, Messages: []string{"Employee E9 not found"}},
		{RowIndexes: []int{5}, Exception: "LinkValidationError"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(logSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Row(s)", "Status", "Document", "Messages"}, rows[0])
	assert.Equal(t, []string{"2, 3", "Success", "HR-ATT-0001"}, rows[1])
	assert.Equal(t, []string{"4", "Failed", "", "Employee E9 not found"}, rows[2])
	assert.Equal(t, []string{"5", "Failed", "", "LinkValidationError"}, rows[3])
}

func TestBuildTemplate(t *testing.T) {
	data, err := BuildTemplate(attendanceFields()[:3])
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetRows(templateSheetName)
	require.NoError(t, err)
	require.Len(t, header, 1)
	assert.Equal(t, []string{"Employee *", "Employee Name", "Attendance Date *"}, header[0])

	names, err := f.GetRows(fieldsSheetName)
	require.NoError(t, err)
	assert.Equal(t, []string{"employee", "employee_name", "attendance_date"}, names[0])

	visible, err := f.GetSheetVisible(fieldsSheetName)
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestTemplateHeadersAutoMapBack(t *testing.T) {
	fields := attendanceFields()
	data, err := BuildTemplate(fields)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	header, err := f.GetRows(templateSheetName)
	require.NoError(t, err)

	mapping := NewAutoMapper(DefaultSynonyms()).Map(EntityAttendance, PreviewGrid{Columns: columns(header[0]...)}, fields)
	for i, field := range fields {
		assert.Equal(t, Field(field.Fieldname), mapping[i])
	}
}
