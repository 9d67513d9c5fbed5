package import_feature

import "strings"

// SynonymTable maps a target entity to its header aliases. Aliases are
// compared after normalizeHeader; values are fieldnames.
type SynonymTable map[string]map[string]string

// DefaultSynonyms covers the entities this service imports.
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		EntityAttendance: {
			"name":            "employee_name",
			"employee name":   "employee_name",
			"emp name":        "employee_name",
			"emp id":          "employee",
			"employee id":     "employee",
			"emp":             "employee",
			"date":            "attendance_date",
			"attendance date": "attendance_date",
			"day":             "attendance_date",
			"in":              "in_time",
			"in time":         "in_time",
			"check in":        "in_time",
			"out":             "out_time",
			"out time":        "out_time",
			"check out":       "out_time",
			"shift type":      "shift",
			"leave":           "leave_type",
		},
		EntityContact: {
			"name":          "first_name",
			"last name":     "last_name",
			"surname":       "last_name",
			"email":         "email_id",
			"e-mail":        "email_id",
			"mail":          "email_id",
			"phone":         "phone",
			"phone number":  "phone",
			"mobile":        "mobile_no",
			"mobile number": "mobile_no",
			"cell":          "mobile_no",
			"company":       "company_name",
			"organization":  "company_name",
			"designation":   "designation",
			"position":      "designation",
			"gender":        "gender",
		},
	}
}

// Lookup resolves a header alias for entity.
func (t SynonymTable) Lookup(entity, header string) (string, bool) {
	aliases, ok := t[entity]
	if !ok {
		return "", false
	}
	field, ok := aliases[normalizeHeader(header)]
	return field, ok
}

// Entities lists the entities the table knows about.
func (t SynonymTable) Entities() []string {
	out := make([]string, 0, len(t))
	for e := range t {
		out = append(out, e)
	}
	return out
}

// normalizeHeader trims and lowercases a header. A trailing "*" required
// marker, as written by BuildTemplate, is dropped.
func normalizeHeader(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 1 {
		s = strings.TrimSpace(strings.TrimSuffix(s, "*"))
	}
	return strings.ToLower(s)
}
