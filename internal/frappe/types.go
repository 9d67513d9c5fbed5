package frappe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ImportTypeInsert is the only import intent this service creates.
const ImportTypeInsert = "Insert New Records"

// DontImport is the backend's skip marker inside column_to_field_map.
const DontImport = "Don't Import"

// Check decodes the backend's 0/1 integer flags as well as JSON booleans.
type Check bool

func (c *Check) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "null", "", `""`:
		*c = false
		return nil
	case "true":
		*c = true
		return nil
	case "false":
		*c = false
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid check value %s", b)
	}
	*c = n != 0
	return nil
}

// UploadedFile is the File document created by upload_file.
type UploadedFile struct {
	Name     string `json:"name"`
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
}

// CreateDataImportRequest is the body for a new Data Import document.
type CreateDataImportRequest struct {
	ReferenceDoctype string `json:"reference_doctype"`
	ImportFile       string `json:"import_file"`
	ImportType       string `json:"import_type"`
}

// TemplateOptions is serialized into the Data Import template_options field.
type TemplateOptions struct {
	ColumnToFieldMap map[string]string `json:"column_to_field_map"`
}

// DocField is one field of a doctype's metadata.
type DocField struct {
	Fieldname string `json:"fieldname"`
	Label     string `json:"label"`
	Fieldtype string `json:"fieldtype"`
	Reqd      Check  `json:"reqd"`
	Hidden    Check  `json:"hidden"`
	ReadOnly  Check  `json:"read_only"`
}

// PreviewColumn describes one column of a previewed import file.
type PreviewColumn struct {
	HeaderTitle string    `json:"header_title"`
	SkipImport  Check     `json:"skip_import"`
	MapToField  string    `json:"map_to_field,omitempty"`
	DF          *DocField `json:"df,omitempty"`
}

// PreviewWarning is a template-level problem found while previewing.
type PreviewWarning struct {
	Row     *int   `json:"row,omitempty"`
	Col     *int   `json:"col,omitempty"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ImportPreview is the response of get_preview_from_template.
type ImportPreview struct {
	Columns  []PreviewColumn  `json:"columns"`
	Data     [][]any          `json:"data"`
	Warnings []PreviewWarning `json:"warnings,omitempty"`
}

// ImportStatus is the response of get_import_status.
type ImportStatus struct {
	Status       string `json:"status"`
	TotalRecords int    `json:"total_records"`
	Success      int    `json:"success"`
	Failed       int    `json:"failed"`
}

// ImportWarning is one accumulated warning on a running job.
type ImportWarning struct {
	Row     *int   `json:"row,omitempty"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

// ImportLog is one row-group result of a finished job. RowIndexes and
// Messages arrive as JSON-encoded strings and are decoded on unmarshal.
type ImportLog struct {
	RowIndexes []int    `json:"-"`
	Success    bool     `json:"-"`
	Docname    string   `json:"docname"`
	Messages   []string `json:"-"`
	Exception  string   `json:"exception"`
}

func (l *ImportLog) UnmarshalJSON(b []byte) error {
	var raw struct {
		RowIndexes json.RawMessage `json:"row_indexes"`
		Success    Check           `json:"success"`
		Docname    string          `json:"docname"`
		Messages   json.RawMessage `json:"messages"`
		Exception  string          `json:"exception"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	rows, err := decodeRowIndexes(raw.RowIndexes)
	if err != nil {
		return fmt.Errorf("row_indexes: %w", err)
	}
	msgs, err := decodeMessages(raw.Messages)
	if err != nil {
		return fmt.Errorf("messages: %w", err)
	}

	*l = ImportLog{
		RowIndexes: rows,
		Success:    bool(raw.Success),
		Docname:    raw.Docname,
		Messages:   msgs,
		Exception:  raw.Exception,
	}
	return nil
}

// unquote turns a JSON string holding JSON into the inner document; anything
// else is returned unchanged.
func unquote(raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil, err
	}
	if inner == "" {
		return nil, nil
	}
	return json.RawMessage(inner), nil
}

func decodeRowIndexes(raw json.RawMessage) ([]int, error) {
	inner, err := unquote(raw)
	if err != nil || inner == nil {
		return nil, err
	}
	var rows []int
	if err := json.Unmarshal(inner, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeMessages(raw json.RawMessage) ([]string, error) {
	inner, err := unquote(raw)
	if err != nil || inner == nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, err
	}

	msgs := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if m := messageText(s); m != "" {
				msgs = append(msgs, m)
			}
			continue
		}
		var obj struct {
			Message string `json:"message"`
			Title   string `json:"title"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Message != "" {
			msgs = append(msgs, cleanText(obj.Message))
		}
	}
	return msgs, nil
}
