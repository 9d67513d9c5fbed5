package import_feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fieldnames(fields []TargetField) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Fieldname
	}
	return out
}

func TestSuggestFields(t *testing.T) {
	fields := attendanceFields()

	assert.Equal(t, fieldnames(fields), fieldnames(SuggestFields("", fields)))

	got := fieldnames(SuggestFields("emp", fields))
	assert.ElementsMatch(t, []string{"employee", "employee_name"}, got)

	got = fieldnames(SuggestFields("TIME", fields))
	assert.ElementsMatch(t, []string{"in_time", "out_time"}, got)

	assert.Empty(t, SuggestFields("salary", fields))
}

func TestSuggestFieldsMatchesFieldname(t *testing.T) {
	fields := []TargetField{{Fieldname: "mobile_no", Label: "Mobile"}}
	assert.Equal(t, []string{"mobile_no"}, fieldnames(SuggestFields("mobile_n", fields)))
}
