package frappe

import (
	"context"
	"net/http"
)

// Layout-only field types never hold importable data.
var layoutFieldtypes = map[string]bool{
	"Section Break":     true,
	"Column Break":      true,
	"Tab Break":         true,
	"HTML":              true,
	"Button":            true,
	"Table":             true,
	"Table MultiSelect": true,
	"Fold":              true,
	"Heading":           true,
}

// GetDocFields returns the importable fields of a doctype.
func (c *Client) GetDocFields(ctx context.Context, doctype string) ([]DocField, error) {
	var doc struct {
		Fields []DocField `json:"fields"`
	}
	if err := c.resource(ctx, http.MethodGet, "DocType", doctype, nil, &doc); err != nil {
		return nil, err
	}

	fields := make([]DocField, 0, len(doc.Fields))
	for _, f := range doc.Fields {
		if f.Fieldname == "" || layoutFieldtypes[f.Fieldtype] {
			continue
		}
		fields = append(fields, f)
	}
	return fields, nil
}
