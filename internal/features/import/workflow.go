package import_feature

import "fmt"

// StepKind names a step of the import dialog.
type StepKind string

const (
	StepUploading  StepKind = "uploading"
	StepMapping    StepKind = "mapping"
	StepPreviewing StepKind = "previewing"
	StepRunning    StepKind = "running"
)

// Step is the workflow state. Handle is set only while Running.
type Step struct {
	Kind   StepKind
	Handle *PollHandle
}

func Uploading() Step  { return Step{Kind: StepUploading} }
func Mapping() Step    { return Step{Kind: StepMapping} }
func Previewing() Step { return Step{Kind: StepPreviewing} }
func Running(h *PollHandle) Step {
	return Step{Kind: StepRunning, Handle: h}
}

// EventKind names an input to Reduce.
type EventKind string

const (
	EventUploaded      EventKind = "uploaded"
	EventPreviewLoaded EventKind = "preview_loaded"
	EventCommitted     EventKind = "committed"
	EventBack          EventKind = "back"
	EventAborted       EventKind = "aborted"
	EventReset         EventKind = "reset"
)

// Event drives the workflow. Handle accompanies EventCommitted.
type Event struct {
	Kind   EventKind
	Handle *PollHandle
}

// Reduce is the only place step transitions are decided.
//
//	uploading  --uploaded-->       mapping
//	mapping    --preview_loaded--> previewing
//	previewing --preview_loaded--> previewing
//	previewing --committed-->      running
//	mapping    --back-->           uploading
//	previewing --back-->           mapping
//	running    --aborted-->        previewing
//	any        --reset-->          uploading
func Reduce(s Step, e Event) (Step, error) {
	switch {
	case e.Kind == EventReset:
		return Uploading(), nil
	case s.Kind == StepUploading && e.Kind == EventUploaded:
		return Mapping(), nil
	case (s.Kind == StepMapping || s.Kind == StepPreviewing) && e.Kind == EventPreviewLoaded:
		return Previewing(), nil
	case s.Kind == StepPreviewing && e.Kind == EventCommitted:
		if e.Handle == nil {
			return s, fmt.Errorf("%w: commit without a job handle", ErrIllegalTransition)
		}
		return Running(e.Handle), nil
	case s.Kind == StepMapping && e.Kind == EventBack:
		return Uploading(), nil
	case s.Kind == StepPreviewing && e.Kind == EventBack:
		return Mapping(), nil
	case s.Kind == StepRunning && e.Kind == EventAborted:
		return Previewing(), nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, e.Kind, s.Kind)
}

// allows reports whether the step permits an operation.
func (s Step) allows(kinds ...StepKind) bool {
	for _, k := range kinds {
		if s.Kind == k {
			return true
		}
	}
	return false
}
