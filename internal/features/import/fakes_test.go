package import_feature

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go-crm-import/internal/frappe"
)

type statusStep struct {
	status *frappe.ImportStatus
	err    error
}

// fakeBackend scripts backend responses and records calls.
type fakeBackend struct {
	mu sync.Mutex

	docFields []frappe.DocField
	preview   *frappe.ImportPreview
	statuses  []statusStep
	warnings  [][]frappe.ImportWarning
	logs      []frappe.ImportLog

	uploadErr  error
	createErr  error
	startErr   error
	logsErrors int

	created         []frappe.CreateDataImportRequest
	uploadedFiles   []string
	templateUpdates map[string][]frappe.TemplateOptions
	importFiles     map[string][][]string
	started         []string
	statusCalls     int
	warningCalls    int
	logCalls        int
	nextJob         int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		templateUpdates: make(map[string][]frappe.TemplateOptions),
		importFiles:     make(map[string][][]string),
	}
}

func (f *fakeBackend) GetDocFields(ctx context.Context, doctype string) ([]frappe.DocField, error) {
	return f.docFields, nil
}

func (f *fakeBackend) UploadFile(ctx context.Context, filename string, content io.Reader) (*frappe.UploadedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploadedFiles = append(f.uploadedFiles, filename)
	return &frappe.UploadedFile{FileURL: "/private/files/" + filename}, nil
}

func (f *fakeBackend) CreateDataImport(ctx context.Context, req frappe.CreateDataImportRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, req)
	f.nextJob++
	return jobName(f.nextJob), nil
}

func jobName(n int) string {
	return fmt.Sprintf("DI-%04d", n)
}

func (f *fakeBackend) UpdateDataImport(ctx context.Context, name string, opts frappe.TemplateOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templateUpdates[name] = append(f.templateUpdates[name], opts)
	return nil
}

func (f *fakeBackend) UpdateImportFile(ctx context.Context, name string, grid [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.importFiles[name] = grid
	return nil
}

func (f *fakeBackend) GetImportPreview(ctx context.Context, name string) (*frappe.ImportPreview, error) {
	return f.preview, nil
}

func (f *fakeBackend) StartDataImport(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, name)
	return nil
}

// GetImportStatus replays statuses in order and repeats the last one.
func (f *fakeBackend) GetImportStatus(ctx context.Context, name string) (*frappe.ImportStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if len(f.statuses) == 0 {
		return &frappe.ImportStatus{Status: "Pending"}, nil
	}
	step := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return step.status, step.err
}

// GetImportWarnings replays warning batches and then reports none.
func (f *fakeBackend) GetImportWarnings(ctx context.Context, name string) ([]frappe.ImportWarning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warningCalls++
	if len(f.warnings) == 0 {
		return nil, nil
	}
	w := f.warnings[0]
	f.warnings = f.warnings[1:]
	return w, nil
}

func (f *fakeBackend) GetImportLogs(ctx context.Context, name string) ([]frappe.ImportLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logCalls++
	if f.logsErrors > 0 {
		f.logsErrors--
		return nil, io.ErrUnexpectedEOF
	}
	return f.logs, nil
}

func (f *fakeBackend) calls() (status, warnings, logs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls, f.warningCalls, f.logCalls
}

func running(total, success, failed int) statusStep {
	return statusStep{status: &frappe.ImportStatus{Status: "Running", TotalRecords: total, Success: success, Failed: failed}}
}

func finished(status string, total, success, failed int) statusStep {
	return statusStep{status: &frappe.ImportStatus{Status: status, TotalRecords: total, Success: success, Failed: failed}}
}

func intPtr(n int) *int { return &n }

// attendanceFields mirrors the Attendance doctype used across tests.
func attendanceFields() []TargetField {
	return []TargetField{
		{Fieldname: "employee", Label: "Employee", Required: true},
		{Fieldname: "employee_name", Label: "Employee Name"},
		{Fieldname: "attendance_date", Label: "Attendance Date", Required: true},
		{Fieldname: "status", Label: "Status", Required: true},
		{Fieldname: "in_time", Label: "In Time"},
		{Fieldname: "out_time", Label: "Out Time"},
	}
}

func attendanceDocFields() []frappe.DocField {
	out := make([]frappe.DocField, 0)
	for _, f := range attendanceFields() {
		out = append(out, frappe.DocField{Fieldname: f.Fieldname, Label: f.Label, Fieldtype: "Data", Reqd: frappe.Check(f.Required)})
	}
	return out
}

func textRow(values ...string) []Cell {
	row := make([]Cell, len(values))
	for i, v := range values {
		row[i] = TextCell(v)
	}
	return row
}
