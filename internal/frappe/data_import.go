package frappe

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	dataImportDoctype = "Data Import"
	dataImportModule  = "frappe.core.doctype.data_import.data_import"
)

// UploadFile stores a private file on the backend and returns its handle.
func (c *Client) UploadFile(ctx context.Context, filename string, content io.Reader) (*UploadedFile, error) {
	return c.uploadFile(ctx, filename, content, nil)
}

func (c *Client) uploadFile(ctx context.Context, filename string, content io.Reader, attach map[string]string) (*UploadedFile, error) {
	form := map[string]string{"is_private": "1"}
	for k, v := range attach {
		form[k] = v
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, content).
		SetFormData(form).
		Post("/api/method/upload_file")
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, newAPIError(resp.StatusCode(), resp.Body())
	}

	var envelope struct {
		Message UploadedFile `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("upload file: failed to parse response: %w", err)
	}
	if envelope.Message.FileURL == "" {
		return nil, fmt.Errorf("upload file: backend returned no file_url")
	}
	return &envelope.Message, nil
}

// CreateDataImport creates the job document and returns its name.
func (c *Client) CreateDataImport(ctx context.Context, req CreateDataImportRequest) (string, error) {
	var doc struct {
		Name string `json:"name"`
	}
	if err := c.resource(ctx, http.MethodPost, dataImportDoctype, "", req, &doc); err != nil {
		return "", err
	}
	if doc.Name == "" {
		return "", fmt.Errorf("create data import: backend returned no name")
	}
	return doc.Name, nil
}

// UpdateDataImport persists the column mapping on the job.
func (c *Client) UpdateDataImport(ctx context.Context, name string, opts TemplateOptions) error {
	encoded, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encode template options: %w", err)
	}
	body := map[string]string{"template_options": string(encoded)}
	return c.resource(ctx, http.MethodPut, dataImportDoctype, name, body, nil)
}

// UpdateImportFile replaces the job's source data with grid (header row first).
func (c *Client) UpdateImportFile(ctx context.Context, name string, grid [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(grid); err != nil {
		return fmt.Errorf("encode import file: %w", err)
	}

	file, err := c.uploadFile(ctx, name+".csv", &buf, map[string]string{
		"doctype":   dataImportDoctype,
		"docname":   name,
		"fieldname": "import_file",
	})
	if err != nil {
		return err
	}

	body := map[string]string{"import_file": file.FileURL}
	return c.resource(ctx, http.MethodPut, dataImportDoctype, name, body, nil)
}

// GetImportPreview returns the backend's interpretation of the job's file.
func (c *Client) GetImportPreview(ctx context.Context, name string) (*ImportPreview, error) {
	var preview ImportPreview
	body := map[string]string{"data_import": name}
	if err := c.callMethod(ctx, http.MethodPost, dataImportModule+".get_preview_from_template", nil, body, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

// StartDataImport enqueues the job on the backend.
func (c *Client) StartDataImport(ctx context.Context, name string) error {
	body := map[string]string{"data_import": name}
	return c.callMethod(ctx, http.MethodPost, dataImportModule+".form_start_import", nil, body, nil)
}

// GetImportStatus returns the job's current counters.
func (c *Client) GetImportStatus(ctx context.Context, name string) (*ImportStatus, error) {
	var status ImportStatus
	params := map[string]string{"data_import_name": name}
	if err := c.callMethod(ctx, http.MethodGet, dataImportModule+".get_import_status", params, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetImportWarnings reads the warnings accumulated on the job document.
func (c *Client) GetImportWarnings(ctx context.Context, name string) ([]ImportWarning, error) {
	var doc struct {
		TemplateWarnings string `json:"template_warnings"`
	}
	if err := c.resource(ctx, http.MethodGet, dataImportDoctype, name, nil, &doc); err != nil {
		return nil, err
	}
	if doc.TemplateWarnings == "" {
		return nil, nil
	}

	var warnings []ImportWarning
	if err := json.Unmarshal([]byte(doc.TemplateWarnings), &warnings); err != nil {
		return nil, fmt.Errorf("parse template warnings: %w", err)
	}
	return warnings, nil
}

// GetImportLogs returns the per-row results of a finished job.
func (c *Client) GetImportLogs(ctx context.Context, name string) ([]ImportLog, error) {
	var logs []ImportLog
	params := map[string]string{"data_import": name}
	if err := c.callMethod(ctx, http.MethodGet, dataImportModule+".get_import_logs", params, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
