package import_feature

import (
	"context"
	"io"

	"go-crm-import/internal/frappe"
)

// Backend is the document backend as seen by the import workflow.
// *frappe.Client satisfies it.
type Backend interface {
	StatusBackend
	GetDocFields(ctx context.Context, doctype string) ([]frappe.DocField, error)
	UploadFile(ctx context.Context, filename string, content io.Reader) (*frappe.UploadedFile, error)
	CreateDataImport(ctx context.Context, req frappe.CreateDataImportRequest) (string, error)
	UpdateDataImport(ctx context.Context, name string, opts frappe.TemplateOptions) error
	UpdateImportFile(ctx context.Context, name string, grid [][]string) error
	GetImportPreview(ctx context.Context, name string) (*frappe.ImportPreview, error)
	StartDataImport(ctx context.Context, name string) error
}

func NewBackend(client *frappe.Client) Backend {
	return client
}

// targetFields keeps the importable fields of a doctype. Hidden and
// read-only fields are dropped unless the backend marks them mandatory.
func targetFields(docFields []frappe.DocField) []TargetField {
	out := make([]TargetField, 0, len(docFields))
	for _, df := range docFields {
		if df.Fieldname == "" {
			continue
		}
		if (df.Hidden || df.ReadOnly) && !df.Reqd {
			continue
		}
		out = append(out, TargetField{
			Fieldname: df.Fieldname,
			Label:     df.Label,
			Required:  bool(df.Reqd),
		})
	}
	return out
}
