package import_feature

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go-crm-import/internal/frappe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryHistory struct {
	mu      sync.Mutex
	entries []ImportHistory
}

func (m *memoryHistory) Save(ctx context.Context, h *ImportHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *h)
	return nil
}

func (m *memoryHistory) List(ctx context.Context, filter HistoryFilter) ([]ImportHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ImportHistory
	for _, e := range m.entries {
		if filter.Entity == "" || e.Entity == filter.Entity {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryHistory) EnsureIndexes(ctx context.Context) error { return nil }

func (m *memoryHistory) all() []ImportHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ImportHistory(nil), m.entries...)
}

func (f *fakeBackend) setStatuses(steps ...statusStep) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = steps
}

func (f *fakeBackend) setWarnings(batches ...[]frappe.ImportWarning) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = batches
}

func (f *fakeBackend) snapshot() (created []frappe.CreateDataImportRequest, started []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(created, f.created...), append(started, f.started...)
}

type serviceFixture struct {
	backend *fakeBackend
	history *memoryHistory
	metrics *Metrics
	svc     *ImportServiceImpl
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	backend := newFakeBackend()
	backend.docFields = attendanceDocFields()
	backend.preview = &frappe.ImportPreview{
		Columns: []frappe.PreviewColumn{
			{HeaderTitle: "Sr. No", SkipImport: true},
			{HeaderTitle: "Employee"},
			{HeaderTitle: "Date"},
			{HeaderTitle: "Status"},
		},
		Data: [][]any{
			{float64(1), "E1", "2024-01-01", "Present"},
			{float64(2), "E2", "2024-01-01", ""},
		},
	}

	history := &memoryHistory{}
	metrics := NewMetrics(prometheusRegistry(t))
	poller := NewPoller(backend, fastPoll, metrics, nil)
	svc := newImportService(backend, poller, DefaultSynonyms(), history, metrics, nil)
	t.Cleanup(func() {
		for _, sess := range svc.sessions.all() {
			_ = svc.Close(context.Background(), sess.UserID, sess.ID)
		}
	})

	return &serviceFixture{backend: backend, history: history, metrics: metrics, svc: svc}
}

func csvFile(name string) *FileUpload {
	return &FileUpload{Filename: name, Content: strings.NewReader("Employee,Date,Status\n")}
}

func (fx *serviceFixture) start(t *testing.T) *SessionView {
	t.Helper()
	view, err := fx.svc.Initialize(context.Background(), "u1", EntityAttendance, csvFile("att.csv"))
	require.NoError(t, err)
	return view
}

func (fx *serviceFixture) waitTerminal(t *testing.T, id string) ImportStatusReport {
	t.Helper()
	var report ImportStatusReport
	require.Eventually(t, func() bool {
		r, err := fx.svc.Status(context.Background(), "u1", id)
		if err != nil || !r.Terminal {
			return false
		}
		report = r
		return true
	}, 5*time.Second, 5*time.Millisecond)
	return report
}

func TestInitializeSeedsMapping(t *testing.T) {
	fx := newServiceFixture(t)

	view := fx.start(t)

	assert.Equal(t, StepMapping, view.Step)
	require.NotNil(t, view.Job)
	assert.Equal(t, "DI-0001", view.Job.ID)
	assert.Equal(t, JobPreviewing, view.Job.Status)
	assert.Equal(t, "/private/files/att.csv", view.Job.SourceFileRef)
	assert.Equal(t, ColumnMapping{1: Field("employee"), 2: Field("attendance_date"), 3: Field("status")}, view.Mapping)

	created, _ := fx.backend.snapshot()
	require.Len(t, created, 1)
	assert.Equal(t, frappe.CreateDataImportRequest{
		ReferenceDoctype: EntityAttendance,
		ImportFile:       "/private/files/att.csv",
		ImportType:       frappe.ImportTypeInsert,
	}, created[0])
}

func TestInitializeRejectsBadInput(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Initialize(ctx, "u1", EntityAttendance, nil)
	assert.ErrorIs(t, err, ErrMissingFile)

	_, err = fx.svc.Initialize(ctx, "u1", EntityAttendance, csvFile("att.pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = fx.svc.Initialize(ctx, "u1", "Invoice", csvFile("inv.csv"))
	assert.ErrorIs(t, err, ErrUnsupportedEntity)

	assert.Empty(t, fx.backend.uploadedFiles, "nothing reaches the backend")
}

func TestInitializeSurfacesBackendError(t *testing.T) {
	fx := newServiceFixture(t)
	backendErr := &frappe.APIError{StatusCode: 417, Message: "File type not allowed"}
	fx.backend.uploadErr = backendErr

	_, err := fx.svc.Initialize(context.Background(), "u1", EntityAttendance, csvFile("att.xlsx"))

	assert.Same(t, backendErr, err)
	assert.Empty(t, fx.svc.sessions.all(), "failed sessions are not kept")
}

func TestImportFlowToSuccess(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	fx.backend.setStatuses(running(2, 1, 0), finished("Success", 2, 2, 0))
	fx.backend.logs = []frappe.ImportLog{{RowIndexes: []int{1, 2}, Success: true, Docname: "HR-ATT-0001"}}

	view := fx.start(t)

	_, err := fx.svc.EditCell(ctx, "u1", view.ID, 1, 3, "Absent")
	assert.ErrorIs(t, err, ErrWrongStep, "grid is read-only until previewed")

	view, err = fx.svc.SetMapping(ctx, "u1", view.ID, 2, Skip)
	require.NoError(t, err)

	view, err = fx.svc.LoadPreview(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, StepPreviewing, view.Step)
	assert.Equal(t, JobMapped, view.Job.Status)
	assert.Equal(t, Skip, view.Mapping[2], "reloading keeps the user's mapping")

	saved := fx.backend.templateUpdates["DI-0001"]
	require.Len(t, saved, 1)
	assert.Equal(t, map[string]string{"0": "employee", "1": frappe.DontImport, "2": "status"}, saved[0].ColumnToFieldMap)

	err = fx.svc.Validate(ctx, "u1", view.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 2, verr.Row)

	_, err = fx.svc.EditCell(ctx, "u1", view.ID, 1, 3, "Absent")
	require.NoError(t, err)
	require.NoError(t, fx.svc.Validate(ctx, "u1", view.ID))

	view, err = fx.svc.Commit(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, StepRunning, view.Step)

	assert.Equal(t, [][]string{
		{"Employee", "Status"},
		{"E1", "Present"},
		{"E2", "Absent"},
	}, fx.backend.importFiles["DI-0001"])
	saved = fx.backend.templateUpdates["DI-0001"]
	assert.Equal(t, map[string]string{"0": "employee", "1": "status"}, saved[len(saved)-1].ColumnToFieldMap)

	report := fx.waitTerminal(t, view.ID)
	assert.Equal(t, JobSuccess, report.Status)
	assert.Equal(t, 100.0, report.Progress)
	require.Len(t, report.Logs, 1)

	view, err = fx.svc.Get(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, JobSuccess, view.Job.Status)

	require.Eventually(t, func() bool { return len(fx.history.all()) == 1 }, time.Second, 5*time.Millisecond)
	entry := fx.history.all()[0]
	assert.Equal(t, "DI-0001", entry.Job)
	assert.Equal(t, JobSuccess, entry.Status)
	assert.Equal(t, "u1", entry.UserID)

	data, err := fx.svc.ExportLogs(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	assert.Equal(t, 1.0, counterValue(t, fx.metrics.started.WithLabelValues(EntityAttendance)))
}

func TestCommitBlockedByValidation(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	view := fx.start(t)
	_, err := fx.svc.LoadPreview(ctx, "u1", view.ID)
	require.NoError(t, err)

	_, err = fx.svc.Commit(ctx, "u1", view.ID)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Row 2: Status is mandatory", verr.Error())

	_, started := fx.backend.snapshot()
	assert.Empty(t, started)
	assert.Empty(t, fx.backend.importFiles)
	assert.Equal(t, 1.0, counterValue(t, fx.metrics.validationFailures.WithLabelValues(EntityAttendance)))

	view, err = fx.svc.Get(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, StepPreviewing, view.Step, "workflow stays on the current step")
}

func TestAbortThenRecommitCreatesNewJob(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	fx.backend.setStatuses(running(2, 0, 0))
	fx.backend.setWarnings([]frappe.ImportWarning{{Row: intPtr(2), Message: "Invalid status"}})

	view := fx.start(t)
	_, err := fx.svc.LoadPreview(ctx, "u1", view.ID)
	require.NoError(t, err)
	_, err = fx.svc.EditCell(ctx, "u1", view.ID, 1, 3, "Present")
	require.NoError(t, err)
	_, err = fx.svc.Commit(ctx, "u1", view.ID)
	require.NoError(t, err)

	report := fx.waitTerminal(t, view.ID)
	assert.Equal(t, JobAborted, report.Status)
	assert.Equal(t, "Row 2: Invalid status", report.Error)

	require.Eventually(t, func() bool {
		v, err := fx.svc.Get(ctx, "u1", view.ID)
		return err == nil && v.Step == StepPreviewing
	}, time.Second, 5*time.Millisecond)

	view, err = fx.svc.Get(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, JobAborted, view.Job.Status)
	_, _, logs := fx.backend.calls()
	assert.Equal(t, 0, logs)

	fx.backend.setStatuses(finished("Success", 2, 2, 0))
	view, err = fx.svc.Commit(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, "DI-0002", view.Job.ID)
	assert.Equal(t, "/private/files/att.csv", view.Job.SourceFileRef)

	created, started := fx.backend.snapshot()
	require.Len(t, created, 2)
	assert.Equal(t, created[0].ImportFile, created[1].ImportFile)
	assert.Equal(t, []string{"DI-0001", "DI-0002"}, started)

	report = fx.waitTerminal(t, view.ID)
	assert.Equal(t, "DI-0002", report.Job)
	assert.Equal(t, JobSuccess, report.Status)

	require.Eventually(t, func() bool { return len(fx.history.all()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, JobAborted, fx.history.all()[0].Status)
}

func TestAbortThenFixMappingAndRecommit(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	fx.backend.setStatuses(running(2, 0, 0))
	fx.backend.setWarnings([]frappe.ImportWarning{{Row: intPtr(2), Message: "Invalid status"}})

	view := fx.start(t)
	_, err := fx.svc.LoadPreview(ctx, "u1", view.ID)
	require.NoError(t, err)
	_, err = fx.svc.EditCell(ctx, "u1", view.ID, 1, 3, "Present")
	require.NoError(t, err)
	_, err = fx.svc.Commit(ctx, "u1", view.ID)
	require.NoError(t, err)

	report := fx.waitTerminal(t, view.ID)
	require.Equal(t, JobAborted, report.Status)
	require.Eventually(t, func() bool {
		v, err := fx.svc.Get(ctx, "u1", view.ID)
		return err == nil && v.Step == StepPreviewing
	}, time.Second, 5*time.Millisecond)

	view, err = fx.svc.Back(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, StepMapping, view.Step)

	view, err = fx.svc.SetMapping(ctx, "u1", view.ID, 3, Field("status"))
	require.NoError(t, err)

	view, err = fx.svc.LoadPreview(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, StepPreviewing, view.Step)
	assert.Equal(t, "DI-0002", view.Job.ID, "the aborted job is replaced before the mapping is saved")
	assert.Equal(t, JobMapped, view.Job.Status)
	assert.Len(t, fx.backend.templateUpdates["DI-0001"], 2, "no writes reach the aborted job")
	assert.Len(t, fx.backend.templateUpdates["DI-0002"], 1)

	_, err = fx.svc.EditCell(ctx, "u1", view.ID, 1, 3, "Present")
	require.NoError(t, err)
	fx.backend.setStatuses(finished("Success", 2, 2, 0))
	view, err = fx.svc.Commit(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, "DI-0002", view.Job.ID)

	created, started := fx.backend.snapshot()
	assert.Len(t, created, 2)
	assert.Equal(t, []string{"DI-0001", "DI-0002"}, started)

	report = fx.waitTerminal(t, view.ID)
	assert.Equal(t, "DI-0002", report.Job)
	assert.Equal(t, JobSuccess, report.Status)
}

func TestBackDiscardsJobAndAllowsReupload(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	view := fx.start(t)
	_, err := fx.svc.LoadPreview(ctx, "u1", view.ID)
	require.NoError(t, err)

	view, err = fx.svc.Back(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, StepMapping, view.Step)
	assert.NotNil(t, view.Job)

	view, err = fx.svc.Back(ctx, "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, StepUploading, view.Step)
	assert.Nil(t, view.Job)
	assert.Nil(t, view.Grid)

	_, err = fx.svc.Back(ctx, "u1", view.ID)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	view, err = fx.svc.Upload(ctx, "u1", view.ID, csvFile("att2.csv"))
	require.NoError(t, err)
	assert.Equal(t, StepMapping, view.Step)
	assert.Equal(t, "DI-0002", view.Job.ID)
}

func TestSessionsAreScopedToOwner(t *testing.T) {
	fx := newServiceFixture(t)
	view := fx.start(t)

	_, err := fx.svc.Get(context.Background(), "someone-else", view.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = fx.svc.Get(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCloseStopsPolling(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	fx.backend.setStatuses(running(0, 0, 0))

	view := fx.start(t)
	_, err := fx.svc.LoadPreview(ctx, "u1", view.ID)
	require.NoError(t, err)
	_, err = fx.svc.EditCell(ctx, "u1", view.ID, 1, 3, "Present")
	require.NoError(t, err)
	_, err = fx.svc.Commit(ctx, "u1", view.ID)
	require.NoError(t, err)

	reports, unsubscribe, err := fx.svc.Subscribe(ctx, "u1", view.ID)
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, fx.svc.Close(ctx, "u1", view.ID))

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-reports:
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	_, err = fx.svc.Get(ctx, "u1", view.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSweepIdleSessions(t *testing.T) {
	fx := newServiceFixture(t)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	fx.svc.now = func() time.Time { return now }

	stale := fx.start(t)
	now = now.Add(3 * time.Hour)
	fresh := fx.start(t)

	assert.Equal(t, 1, fx.svc.SweepIdle(2*time.Hour))

	_, err := fx.svc.Get(context.Background(), "u1", stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = fx.svc.Get(context.Background(), "u1", fresh.ID)
	assert.NoError(t, err)
}

func TestFieldsAndTemplate(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	fields, err := fx.svc.Fields(ctx, EntityAttendance, "date")
	require.NoError(t, err)
	assert.Equal(t, []string{"attendance_date"}, fieldnames(fields))

	data, err := fx.svc.Template(ctx, EntityAttendance)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = fx.svc.Template(ctx, "Invoice")
	assert.ErrorIs(t, err, ErrUnsupportedEntity)
}

func TestTargetFieldsDropsReadOnly(t *testing.T) {
	fields := targetFields([]frappe.DocField{
		{Fieldname: "employee", Label: "Employee", Reqd: true},
		{Fieldname: "naming_series", Label: "Series", Reqd: true, ReadOnly: true},
		{Fieldname: "amended_from", Label: "Amended From", ReadOnly: true},
		{Fieldname: "late_entry", Label: "Late Entry", Hidden: true},
	})
	assert.Equal(t, []string{"employee", "naming_series"}, fieldnames(fields))
}
