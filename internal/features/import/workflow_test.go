package import_feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceLegalTransitions(t *testing.T) {
	h := &PollHandle{job: "DI-0001"}

	tests := []struct {
		name  string
		from  Step
		event Event
		want  StepKind
	}{
		{"upload", Uploading(), Event{Kind: EventUploaded}, StepMapping},
		{"preview", Mapping(), Event{Kind: EventPreviewLoaded}, StepPreviewing},
		{"re-preview", Previewing(), Event{Kind: EventPreviewLoaded}, StepPreviewing},
		{"commit", Previewing(), Event{Kind: EventCommitted, Handle: h}, StepRunning},
		{"back from mapping", Mapping(), Event{Kind: EventBack}, StepUploading},
		{"back from preview", Previewing(), Event{Kind: EventBack}, StepMapping},
		{"abort", Running(h), Event{Kind: EventAborted}, StepPreviewing},
		{"reset while running", Running(h), Event{Kind: EventReset}, StepUploading},
		{"reset while mapping", Mapping(), Event{Kind: EventReset}, StepUploading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reduce(tt.from, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestReduceCommitCarriesHandle(t *testing.T) {
	h := &PollHandle{job: "DI-0001"}
	got, err := Reduce(Previewing(), Event{Kind: EventCommitted, Handle: h})
	require.NoError(t, err)
	assert.Same(t, h, got.Handle)
}

func TestReduceIllegalTransitions(t *testing.T) {
	h := &PollHandle{job: "DI-0001"}

	tests := []struct {
		name  string
		from  Step
		event Event
	}{
		{"commit from mapping", Mapping(), Event{Kind: EventCommitted, Handle: h}},
		{"commit without handle", Previewing(), Event{Kind: EventCommitted}},
		{"preview before upload", Uploading(), Event{Kind: EventPreviewLoaded}},
		{"back from uploading", Uploading(), Event{Kind: EventBack}},
		{"back while running", Running(h), Event{Kind: EventBack}},
		{"upload twice", Mapping(), Event{Kind: EventUploaded}},
		{"abort while previewing", Previewing(), Event{Kind: EventAborted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reduce(tt.from, tt.event)
			assert.ErrorIs(t, err, ErrIllegalTransition)
			assert.Equal(t, tt.from.Kind, got.Kind, "state is unchanged")
		})
	}
}

func TestJobStatusNeverMovesBackwards(t *testing.T) {
	job := &ImportJob{ID: "DI-0001", Status: JobCreated}

	require.NoError(t, job.advance(JobPreviewing))
	require.NoError(t, job.advance(JobMapped))
	require.NoError(t, job.advance(JobMapped))
	assert.ErrorIs(t, job.advance(JobPreviewing), ErrIllegalTransition)
	require.NoError(t, job.advance(JobRunning))
	require.NoError(t, job.advance(JobAborted))

	assert.ErrorIs(t, job.advance(JobRunning), ErrIllegalTransition)
	assert.ErrorIs(t, job.advance(JobSuccess), ErrIllegalTransition, "terminal statuses are final")
	assert.Equal(t, JobAborted, job.Status)
}

func TestParseBackendStatus(t *testing.T) {
	assert.Equal(t, JobSuccess, parseBackendStatus("Success"))
	assert.Equal(t, JobPartialSuccess, parseBackendStatus("Partial Success"))
	assert.Equal(t, JobError, parseBackendStatus("Error"))
	assert.Equal(t, JobTimedOut, parseBackendStatus("Timed Out"))
	assert.Equal(t, JobRunning, parseBackendStatus("Pending"))
	assert.Equal(t, JobRunning, parseBackendStatus(""))
}
