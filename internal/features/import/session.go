package import_feature

import (
	"sort"
	"sync"
	"time"
)

// Session is one open import dialog. All fields are guarded by mu.
type Session struct {
	mu sync.Mutex

	ID        string
	UserID    string
	Entity    string
	Fields    []TargetField
	Filename  string
	Job       *ImportJob
	CreatedAt time.Time

	editor    *MappingEditor
	grid      PreviewGrid
	step      Step
	report    *ImportStatusReport
	startedAt time.Time
	touched   time.Time
}

func newSession(id, userID, entity string, now time.Time) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		Entity:    entity,
		CreatedAt: now,
		step:      Uploading(),
		touched:   now,
	}
}

// discardJob forgets everything derived from an upload.
func (s *Session) discardJob() {
	if s.step.Handle != nil {
		s.step.Handle.Cancel()
	}
	s.Job = nil
	s.Filename = ""
	s.editor = nil
	s.grid = PreviewGrid{}
	s.report = nil
}

func (s *Session) polling() bool {
	if s.step.Handle == nil {
		return false
	}
	select {
	case <-s.step.Handle.Done():
		return false
	default:
		return true
	}
}

// SessionView is the client-facing snapshot of a session.
type SessionView struct {
	ID      string              `json:"id"`
	Entity  string              `json:"entity"`
	Step    StepKind            `json:"step"`
	File    string              `json:"file,omitempty"`
	Job     *ImportJob          `json:"job,omitempty"`
	Fields  []TargetField       `json:"fields"`
	Mapping ColumnMapping       `json:"mapping,omitempty"`
	Hidden  []int               `json:"hidden,omitempty"`
	Grid    *GridView           `json:"grid,omitempty"`
	Report  *ImportStatusReport `json:"report,omitempty"`
}

// view must be called with s.mu held.
func (s *Session) view() *SessionView {
	v := &SessionView{
		ID:     s.ID,
		Entity: s.Entity,
		Step:   s.step.Kind,
		File:   s.Filename,
		Fields: s.Fields,
	}
	if s.Job != nil {
		job := *s.Job
		v.Job = &job
	}
	if s.editor != nil {
		v.Mapping = s.editor.Mapping()
		hidden := s.editor.Hidden()
		for col := range hidden {
			v.Hidden = append(v.Hidden, col)
		}
		sort.Ints(v.Hidden)
		grid := RenderGrid(s.grid, v.Mapping, hidden, s.Fields)
		v.Grid = &grid
	}
	if s.report != nil {
		report := *s.report
		v.Report = &report
	}
	return v
}

// sessionStore keeps open sessions in memory.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*Session)}
}

func (st *sessionStore) put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

func (st *sessionStore) get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *sessionStore) remove(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	return s, ok
}

func (st *sessionStore) all() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	return out
}
