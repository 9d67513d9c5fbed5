package import_feature

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go-crm-import/internal/frappe"
	"go-crm-import/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileUpload is a user-selected source file.
type FileUpload struct {
	Filename string
	Content  io.Reader
}

var acceptedExtensions = map[string]bool{".csv": true, ".xlsx": true, ".xls": true}

type ImportService interface {
	Initialize(ctx context.Context, userID, entity string, file *FileUpload) (*SessionView, error)
	Get(ctx context.Context, userID, id string) (*SessionView, error)
	Upload(ctx context.Context, userID, id string, file *FileUpload) (*SessionView, error)
	Back(ctx context.Context, userID, id string) (*SessionView, error)
	Reset(ctx context.Context, userID, id string) (*SessionView, error)
	SetMapping(ctx context.Context, userID, id string, column int, target FieldTarget) (*SessionView, error)
	HideColumn(ctx context.Context, userID, id string, column int) (*SessionView, error)
	ShowAllColumns(ctx context.Context, userID, id string) (*SessionView, error)
	LoadPreview(ctx context.Context, userID, id string) (*SessionView, error)
	EditCell(ctx context.Context, userID, id string, row, column int, value string) (*SessionView, error)
	DeleteRow(ctx context.Context, userID, id string, row int) (*SessionView, error)
	Validate(ctx context.Context, userID, id string) error
	Commit(ctx context.Context, userID, id string) (*SessionView, error)
	Status(ctx context.Context, userID, id string) (ImportStatusReport, error)
	Subscribe(ctx context.Context, userID, id string) (<-chan ImportStatusReport, func(), error)
	ExportLogs(ctx context.Context, userID, id string) ([]byte, error)
	Close(ctx context.Context, userID, id string) error
	Template(ctx context.Context, entity string) ([]byte, error)
	Fields(ctx context.Context, entity, query string) ([]TargetField, error)
	History(ctx context.Context, filter HistoryFilter) ([]ImportHistory, error)
	SweepIdle(maxIdle time.Duration) int
}

type ImportServiceImpl struct {
	Backend     Backend
	Poller      *Poller
	AutoMap     *AutoMapper
	HistoryRepo HistoryRepository
	Metrics     *Metrics
	Logger      *zap.Logger

	entities map[string]bool
	sessions *sessionStore
	now      func() time.Time

	fieldsMu sync.Mutex
	fields   map[string][]TargetField
}

func NewImportService(
	backend Backend,
	poller *Poller,
	synonyms SynonymTable,
	history HistoryRepository,
	metrics *Metrics,
	log *zap.Logger,
) ImportService {
	return newImportService(backend, poller, synonyms, history, metrics, log)
}

func newImportService(backend Backend, poller *Poller, synonyms SynonymTable, history HistoryRepository, metrics *Metrics, log *zap.Logger) *ImportServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	entities := make(map[string]bool)
	for _, e := range synonyms.Entities() {
		entities[e] = true
	}
	return &ImportServiceImpl{
		Backend:     backend,
		Poller:      poller,
		AutoMap:     NewAutoMapper(synonyms),
		HistoryRepo: history,
		Metrics:     metrics,
		Logger:      log,
		entities:    entities,
		sessions:    newSessionStore(),
		now:         time.Now,
		fields:      make(map[string][]TargetField),
	}
}

func (s *ImportServiceImpl) log(sess *Session) *zap.Logger {
	l := s.Logger.With(zap.String(logger.SessionIDKey, sess.ID), zap.String("entity", sess.Entity))
	if sess.Job != nil {
		l = l.With(zap.String(logger.JobKey, sess.Job.ID))
	}
	return l
}

// lock returns the caller's session with its mutex held.
func (s *ImportServiceImpl) lock(userID, id string) (*Session, error) {
	sess, ok := s.sessions.get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	if sess.UserID != userID {
		sess.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	sess.touched = s.now()
	return sess, nil
}

func (s *ImportServiceImpl) knownFields(ctx context.Context, entity string) ([]TargetField, error) {
	if !s.entities[entity] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEntity, entity)
	}

	s.fieldsMu.Lock()
	cached, ok := s.fields[entity]
	s.fieldsMu.Unlock()
	if ok {
		return cached, nil
	}

	docFields, err := s.Backend.GetDocFields(ctx, entity)
	if err != nil {
		return nil, err
	}
	fields := targetFields(docFields)

	s.fieldsMu.Lock()
	s.fields[entity] = fields
	s.fieldsMu.Unlock()
	return fields, nil
}

func checkFile(file *FileUpload) error {
	if file == nil || file.Content == nil || file.Filename == "" {
		return ErrMissingFile
	}
	if !acceptedExtensions[strings.ToLower(filepath.Ext(file.Filename))] {
		return ErrUnsupportedFile
	}
	return nil
}

// initialize uploads file, creates the backend job and seeds the mapping
// from the first preview. Backend errors are returned as they are.
func (s *ImportServiceImpl) initialize(ctx context.Context, file *FileUpload, entity string, fields []TargetField) (*ImportJob, ColumnMapping, PreviewGrid, error) {
	if err := checkFile(file); err != nil {
		return nil, nil, PreviewGrid{}, err
	}

	uploaded, err := s.Backend.UploadFile(ctx, file.Filename, file.Content)
	if err != nil {
		return nil, nil, PreviewGrid{}, err
	}

	name, err := s.Backend.CreateDataImport(ctx, frappe.CreateDataImportRequest{
		ReferenceDoctype: entity,
		ImportFile:       uploaded.FileURL,
		ImportType:       frappe.ImportTypeInsert,
	})
	if err != nil {
		return nil, nil, PreviewGrid{}, err
	}

	job := &ImportJob{
		ID:            name,
		TargetEntity:  entity,
		SourceFileRef: uploaded.FileURL,
		Status:        JobCreated,
		CreatedAt:     s.now(),
	}

	preview, err := s.Backend.GetImportPreview(ctx, job.ID)
	if err != nil {
		return nil, nil, PreviewGrid{}, err
	}
	if err := job.advance(JobPreviewing); err != nil {
		return nil, nil, PreviewGrid{}, err
	}

	grid := gridFromPreview(preview)
	return job, s.AutoMap.Map(entity, grid, fields), grid, nil
}

func (s *ImportServiceImpl) Initialize(ctx context.Context, userID, entity string, file *FileUpload) (*SessionView, error) {
	if err := checkFile(file); err != nil {
		return nil, err
	}
	fields, err := s.knownFields(ctx, entity)
	if err != nil {
		return nil, err
	}

	sess := newSession(uuid.NewString(), userID, entity, s.now())
	sess.Fields = fields
	s.sessions.put(sess)

	view, err := s.Upload(ctx, userID, sess.ID, file)
	if err != nil {
		s.sessions.remove(sess.ID)
		return nil, err
	}
	return view, nil
}

func (s *ImportServiceImpl) Upload(ctx context.Context, userID, id string, file *FileUpload) (*SessionView, error) {
	sess, err := s.lock(userID, id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if !sess.step.allows(StepUploading) {
		return nil, fmt.Errorf("%w: upload in %s", ErrWrongStep, sess.step.Kind)
	}

	if len(sess.Fields) == 0 {
		fields, err := s.knownFields(ctx, sess.Entity)
		if err != nil {
			return nil, err
		}
		sess.Fields = fields
	}

	job, mapping, grid, err := s.initialize(ctx, file, sess.Entity, sess.Fields)
	if err != nil {
		s.log(sess).Warn("Import upload failed", zap.Error(err))
		return nil, err
	}

	next, err := Reduce(sess.step, Event{Kind: EventUploaded})
	if err != nil {
		return nil, err
	}

	sess.step = next
	sess.Job = job
	sess.Filename = file.Filename
	sess.editor = NewMappingEditor(mapping, sess.Fields)
	sess.grid = grid
	sess.report = nil

	s.log(sess).Info("Import file uploaded", zap.String("file", file.Filename), zap.Int("columns", len(grid.Columns)), zap.Int("rows", len(grid.Rows)))
	return sess.view(), nil
}

func (s *ImportServiceImpl) Get(ctx context.Context, userID, id string) (*SessionView, error) {
	sess, err := s.lock(userID, id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return sess.view(), nil
}

func (s *ImportServiceImpl) Back(ctx context.Context, userID, id string) (*SessionView, error) {
	sess, err := s.lock(userID, id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	next, err := Reduce(sess.step, Event{Kind: EventBack})
	if err != nil {
		return nil, err
	}
	if next.Kind == StepUploading {
		sess.discardJob()
	}
	sess.step = next
	return sess.view(), nil
}

func (s *ImportServiceImpl) Reset(ctx context.Context, userID, id string) (*SessionView, error) {
	sess, err := s.lock(userID, id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	next, _ := Reduce(sess.step, Event{Kind: EventReset})
	sess.discardJob()
	sess.step = next
	return sess.view(), nil
}

func (s *ImportServiceImpl) editMapping(userID, id string, edit func(*MappingEditor) error) (*SessionView, error) {
	sess, err := s.lock(userID, id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if !sess.step.allows(StepMapping, StepPreviewing) || sess.editor == nil {
		return nil, fmt.Errorf("%w: mapping in %s", ErrWrongStep, sess.step.Kind)
	}
	if err := edit(sess.editor); err != nil {
		return nil, err
	}
	return sess.view(), nil
}

func (s *ImportServiceImpl) SetMapping(ctx context.Context, userID, id string, column int, target FieldTarget) (*SessionView, error) {
	return s.editMapping(userID, id, func(e *MappingEditor) error {
		_, err := e.Set(column, target)
		return err
	})
}

func (s *ImportServiceImpl) HideColumn(ctx context.Context, userID, id string, column int) (*SessionView, error) {
	return s.editMapping(userID, id, func(e *MappingEditor) error {
		_, err := e.Hide(column)
		return err
	})
}

func (s *ImportServiceImpl) ShowAllColumns(ctx context.Context, userID, id string) (*SessionView, error) {
	return s.editMapping(userID, id, func(e *MappingEditor) error {
		e.ShowAll()
		return nil
	})
}

// replaceAbortedJob swaps a job aborted by warnings for a new one bound to
// the same entity and file. Other jobs are left alone. Caller holds sess.mu.
func (s *ImportServiceImpl) replaceAbortedJob(ctx context.Context, sess *Session) error {
	if sess.Job == nil || sess.Job.Status != JobAborted {
		return nil
	}
	name, err := s.Backend.CreateDataImport(ctx, frappe.CreateDataImportRequest{
		ReferenceDoctype: sess.Entity,
		ImportFile:       sess.Job.SourceFileRef,
		ImportType:       frappe.ImportTypeInsert,
	})
	if err != nil {
		return err
	}
	s.log(sess).Info("Replacing aborted import job", zap.String("new_job", name))
	sess.Job = &ImportJob{
		ID:            name,
		TargetEntity:  sess.Entity,
		SourceFileRef: sess.Job.SourceFileRef,
		Status:        JobCreated,
		CreatedAt:     s.now(),
	}
	return nil
}

// LoadPreview stores the current mapping on the job and fetches a fresh
// preview. Cell edits made on an earlier preview are discarded.
func (s *ImportServiceImpl) LoadPreview(ctx context.Context, userID, id string) (*SessionView, error) {
	sess, err := s.lock(userID, id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if !sess.step.allows(StepMapping, StepPreviewing) || sess.Job == nil {
		return nil, fmt.Errorf("%w: preview in %s", ErrWrongStep, sess.step.Kind)
	}

	if err := s.replaceAbortedJob(ctx, sess); err != nil {
		return nil, err
	}

	mapping := sess.editor.Mapping()
	if err := s.Backend.UpdateDataImport(ctx, sess.Job.ID, templateOptions(fileMapping(sess.grid, mapping))); err != nil {
		s.log(sess).Warn("Failed to save import mapping", zap.Error(err))
		return nil, err
	}
	if err := sess.Job.advance(JobMapped); err != nil {
		return nil, err
	}

	preview, err := s.Backend.GetImportPreview(ctx, sess.Job.ID)
	if err != nil {
		s.log(sess).Warn("Failed to load import preview", zap.Error(err))
		return nil, err
	}

	next, err := Reduce(sess.step, Event{Kind: EventPreviewLoaded})
	if err != nil {
		return nil, err
	}

	sess.grid = gridFromPreview(preview)
	sess.editor.Reconcile(s.AutoMap.Map(sess.Entity, sess.grid, sess.Fields))
	sess.step = next

	s.log(sess).Debug("Import preview loaded", zap.Int("rows", len(sess.grid.Rows)))
	return sess.view(), nil
}

func (s *ImportServiceImpl) editGrid(userID, id string, edit func(PreviewGrid) (PreviewGrid, error)) (*SessionView, error) {
	sess, err := s.lock(userID, id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if !sess.step.allows(StepPreviewing) {
		return nil, fmt.Errorf("%w: grid edit in %s", ErrWrongStep, sess.step.Kind)
	}
	grid, err := edit(sess.grid)
	if err != nil {
		return nil, err
	}
	sess.grid = grid
	return sess.view(), nil
}

func (s *ImportServiceImpl) EditCell(ctx context.Context, userID, id string, row, column int, value string) (*SessionView, error) {
	return s.editGrid(userID, id, func(g PreviewGrid) (PreviewGrid, error) {
		return g.EditCell(row, column, value)
	})
}

func (s *ImportServiceImpl) DeleteRow(ctx context.Context, userID, id string, row int) (*SessionView, error) {
	return s.editGrid(userID, id, func(g PreviewGrid) (PreviewGrid, error) {
		return g.DeleteRow(row)
	})
}

func (s *ImportServiceImpl) Validate(ctx context.Context, userID, id string) error {
	sess, err := s.lock(userID, id)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	if sess.editor == nil {
		return fmt.Errorf("%w: validate in %s", ErrWrongStep, sess.step.Kind)
	}
	return Validate(sess.grid, sess.editor.Mapping(), sess.Fields)
}

// Commit sends the edited grid and final mapping and starts the import. A
// job that was aborted by warnings is replaced by a new one for the same file.
func (s *ImportServiceImpl) Commit(ctx context.Context, userID, id string) (*SessionView, error) {
	sess, err := s.lock(userID, id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if !sess.step.allows(StepPreviewing) || sess.Job == nil {
		return nil, fmt.Errorf("%w: commit in %s", ErrWrongStep, sess.step.Kind)
	}

	mapping := sess.editor.Mapping()
	if err := Validate(sess.grid, mapping, sess.Fields); err != nil {
		s.Metrics.validationFailed(sess.Entity)
		return nil, err
	}

	if err := s.replaceAbortedJob(ctx, sess); err != nil {
		return nil, err
	}

	out := BuildOutbound(sess.grid, mapping)
	if err := s.Backend.UpdateImportFile(ctx, sess.Job.ID, out.Grid); err != nil {
		s.log(sess).Warn("Failed to upload edited import data", zap.Error(err))
		return nil, err
	}
	if err := s.Backend.UpdateDataImport(ctx, sess.Job.ID, templateOptions(out.Mapping)); err != nil {
		s.log(sess).Warn("Failed to save import mapping", zap.Error(err))
		return nil, err
	}
	if err := s.Backend.StartDataImport(ctx, sess.Job.ID); err != nil {
		s.log(sess).Warn("Failed to start import", zap.Error(err))
		return nil, err
	}
	if err := sess.Job.advance(JobRunning); err != nil {
		return nil, err
	}

	handle := s.Poller.Start(context.Background(), sess.Job.ID, s.observer(sess))
	next, err := Reduce(sess.step, Event{Kind: EventCommitted, Handle: handle})
	if err != nil {
		handle.Cancel()
		return nil, err
	}

	sess.step = next
	sess.report = nil
	sess.startedAt = s.now()
	s.Metrics.importStarted(sess.Entity)
	s.log(sess).Info("Import started", zap.Int("rows", len(out.Grid)-1), zap.Int("columns", len(out.Mapping)))
	return sess.view(), nil
}

// observer applies poll reports to the session that started the job.
func (s *ImportServiceImpl) observer(sess *Session) func(ImportStatusReport) {
	return func(r ImportStatusReport) {
		sess.mu.Lock()
		if sess.step.Kind != StepRunning || sess.Job == nil || sess.Job.ID != r.Job {
			sess.mu.Unlock()
			return
		}

		report := r
		sess.report = &report

		if !r.Terminal {
			sess.mu.Unlock()
			return
		}

		if err := sess.Job.advance(r.Status); err != nil {
			s.log(sess).Warn("Unexpected job status", zap.Error(err))
		}
		if r.Status == JobAborted {
			if next, err := Reduce(sess.step, Event{Kind: EventAborted}); err == nil {
				sess.step = next
			}
		}

		entry := &ImportHistory{
			SessionID:    sess.ID,
			UserID:       sess.UserID,
			Job:          r.Job,
			Entity:       sess.Entity,
			Status:       r.Status,
			TotalRecords: r.TotalRecords,
			SuccessCount: r.SuccessCount,
			FailedCount:  r.FailedCount,
			Logs:         r.Logs,
			Error:        r.Error,
			StartedAt:    sess.startedAt,
			FinishedAt:   s.now(),
		}
		log := s.log(sess)
		sess.mu.Unlock()

		s.Metrics.importFinished(entry.Entity, entry.Status)
		if s.HistoryRepo == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.HistoryRepo.Save(ctx, entry); err != nil {
			log.Error("Failed to save import history", zap.Error(err))
		}
	}
}

// handle returns the poll handle of the session's current or last run.
func (s *ImportServiceImpl) handle(userID, id string) (*PollHandle, *ImportStatusReport, error) {
	sess, err := s.lock(userID, id)
	if err != nil {
		return nil, nil, err
	}
	defer sess.mu.Unlock()

	var report *ImportStatusReport
	if sess.report != nil {
		r := *sess.report
		report = &r
	}
	return sess.step.Handle, report, nil
}

func (s *ImportServiceImpl) Status(ctx context.Context, userID, id string) (ImportStatusReport, error) {
	h, report, err := s.handle(userID, id)
	if err != nil {
		return ImportStatusReport{}, err
	}
	if report != nil {
		return *report, nil
	}
	if h != nil {
		if latest, ok := h.Latest(); ok {
			return latest, nil
		}
	}
	return ImportStatusReport{}, ErrNoReport
}

func (s *ImportServiceImpl) Subscribe(ctx context.Context, userID, id string) (<-chan ImportStatusReport, func(), error) {
	h, _, err := s.handle(userID, id)
	if err != nil {
		return nil, nil, err
	}
	if h == nil {
		return nil, nil, fmt.Errorf("%w: no import is running", ErrWrongStep)
	}
	ch, unsubscribe := h.Subscribe()
	return ch, unsubscribe, nil
}

func (s *ImportServiceImpl) ExportLogs(ctx context.Context, userID, id string) ([]byte, error) {
	report, err := s.Status(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !report.Terminal {
		return nil, fmt.Errorf("%w: import has not finished", ErrWrongStep)
	}
	return ExportLogs(report.Logs)
}

// Close discards the session and stops watching its job. The backend job
// itself is left running.
func (s *ImportServiceImpl) Close(ctx context.Context, userID, id string) error {
	sess, err := s.lock(userID, id)
	if err != nil {
		return err
	}
	s.sessions.remove(id)
	sess.discardJob()
	sess.step = Uploading()
	sess.mu.Unlock()

	s.Logger.Info("Import session closed", zap.String(logger.SessionIDKey, id))
	return nil
}

func (s *ImportServiceImpl) Template(ctx context.Context, entity string) ([]byte, error) {
	fields, err := s.knownFields(ctx, entity)
	if err != nil {
		return nil, err
	}
	return BuildTemplate(fields)
}

func (s *ImportServiceImpl) Fields(ctx context.Context, entity, query string) ([]TargetField, error) {
	fields, err := s.knownFields(ctx, entity)
	if err != nil {
		return nil, err
	}
	return SuggestFields(query, fields), nil
}

func (s *ImportServiceImpl) History(ctx context.Context, filter HistoryFilter) ([]ImportHistory, error) {
	if s.HistoryRepo == nil {
		return nil, errors.New("import history is not configured")
	}
	return s.HistoryRepo.List(ctx, filter)
}

// SweepIdle closes sessions untouched for longer than maxIdle. Sessions
// still polling a running job are kept.
func (s *ImportServiceImpl) SweepIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	closed := 0
	for _, sess := range s.sessions.all() {
		sess.mu.Lock()
		idle := sess.touched.Before(cutoff) && !sess.polling()
		if idle {
			s.sessions.remove(sess.ID)
			sess.discardJob()
			sess.step = Uploading()
		}
		sess.mu.Unlock()
		if idle {
			closed++
		}
	}
	if closed > 0 {
		s.Logger.Info("Closed idle import sessions", zap.Int("count", closed))
	}
	return closed
}
