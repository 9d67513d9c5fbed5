package import_feature

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Supported target entities.
const (
	EntityAttendance = "Attendance"
	EntityContact    = "Contact"
)

// TargetField is one importable field of the target entity.
type TargetField struct {
	Fieldname string `json:"fieldname"`
	Label     string `json:"label"`
	Required  bool   `json:"required"`
}

// DisplayLabel is the label shown to users, falling back to the fieldname.
func (f TargetField) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Fieldname
}

// FieldTarget is the value of one mapping entry: either Skip or a fieldname.
// The zero value is Skip.
type FieldTarget struct {
	field string
}

// Skip means "do not import this column".
var Skip = FieldTarget{}

// Field maps a column to fieldname. An empty name is Skip.
func Field(fieldname string) FieldTarget {
	return FieldTarget{field: strings.TrimSpace(fieldname)}
}

func (t FieldTarget) IsSkip() bool { return t.field == "" }

func (t FieldTarget) Fieldname() string { return t.field }

func (t FieldTarget) String() string {
	if t.IsSkip() {
		return "skip"
	}
	return t.field
}

// MarshalJSON renders Skip as null.
func (t FieldTarget) MarshalJSON() ([]byte, error) {
	if t.IsSkip() {
		return []byte("null"), nil
	}
	return json.Marshal(t.field)
}

// ColumnMapping assigns each data-bearing source column to a FieldTarget.
type ColumnMapping map[int]FieldTarget

// Clone returns an independent copy.
func (m ColumnMapping) Clone() ColumnMapping {
	out := make(ColumnMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Columns returns the mapped column indexes in ascending order.
func (m ColumnMapping) Columns() []int {
	cols := make([]int, 0, len(m))
	for k := range m {
		cols = append(cols, k)
	}
	sort.Ints(cols)
	return cols
}

// ColumnFor returns the lowest column index mapped to fieldname.
func (m ColumnMapping) ColumnFor(fieldname string) (int, bool) {
	for _, col := range m.Columns() {
		if t := m[col]; !t.IsSkip() && t.Fieldname() == fieldname {
			return col, true
		}
	}
	return 0, false
}

func (m ColumnMapping) MarshalJSON() ([]byte, error) {
	out := make(map[string]FieldTarget, len(m))
	for k, v := range m {
		out[strconv.Itoa(k)] = v
	}
	return json.Marshal(out)
}

// JobStatus is the lifecycle state of an ImportJob.
type JobStatus string

const (
	JobCreated        JobStatus = "Created"
	JobPreviewing     JobStatus = "Previewing"
	JobMapped         JobStatus = "Mapped"
	JobRunning        JobStatus = "Running"
	JobSuccess        JobStatus = "Success"
	JobPartialSuccess JobStatus = "Partial Success"
	JobError          JobStatus = "Error"
	JobTimedOut       JobStatus = "Timed Out"
	JobAborted        JobStatus = "Aborted"
)

var jobStatusRank = map[JobStatus]int{
	JobCreated:        0,
	JobPreviewing:     1,
	JobMapped:         2,
	JobRunning:        3,
	JobSuccess:        4,
	JobPartialSuccess: 4,
	JobError:          4,
	JobTimedOut:       4,
	JobAborted:        4,
}

// IsTerminal reports whether no further transition is possible.
func (s JobStatus) IsTerminal() bool {
	return jobStatusRank[s] == 4
}

// parseBackendStatus maps the backend's status text. Anything that is not a
// known terminal state means the job is still running.
func parseBackendStatus(s string) JobStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return JobSuccess
	case "partial success":
		return JobPartialSuccess
	case "error":
		return JobError
	case "timed out":
		return JobTimedOut
	default:
		return JobRunning
	}
}

// ImportJob is one backend-tracked bulk import.
type ImportJob struct {
	ID            string    `json:"job_id"`
	TargetEntity  string    `json:"target_entity"`
	SourceFileRef string    `json:"source_file_ref"`
	Status        JobStatus `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// advance moves the job forward. Statuses never move backwards and a
// terminal status is final.
func (j *ImportJob) advance(next JobStatus) error {
	if j.Status.IsTerminal() {
		return fmt.Errorf("%w: job %s is already %s", ErrIllegalTransition, j.ID, j.Status)
	}
	if jobStatusRank[next] < jobStatusRank[j.Status] {
		return fmt.Errorf("%w: job %s cannot go from %s to %s", ErrIllegalTransition, j.ID, j.Status, next)
	}
	j.Status = next
	return nil
}

// ImportLogEntry is the outcome of one group of source rows.
type ImportLogEntry struct {
	RowIndexes []int    `json:"row_indexes" bson:"row_indexes"`
	Success    bool     `json:"success" bson:"success"`
	Docname    string   `json:"docname,omitempty" bson:"docname,omitempty"`
	Messages   []string `json:"messages,omitempty" bson:"messages,omitempty"`
	Exception  string   `json:"exception,omitempty" bson:"exception,omitempty"`
}

// ImportStatusReport is one poll tick's snapshot of a running job.
type ImportStatusReport struct {
	Job          string           `json:"job"`
	Tick         int              `json:"tick"`
	Status       JobStatus        `json:"status"`
	TotalRecords int              `json:"total_records"`
	SuccessCount int              `json:"success_count"`
	FailedCount  int              `json:"failed_count"`
	Progress     float64          `json:"progress"`
	Terminal     bool             `json:"terminal"`
	Logs         []ImportLogEntry `json:"logs,omitempty"`
	Error        string           `json:"error,omitempty"`
}

func progressOf(total, success, failed int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(success+failed) / float64(total) * 100
}
