package tracker

import (
	"time"

	"hitstudio/internal/generation"
)

// State is the tracker's lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateTracking   State = "tracking"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Generating reports whether a job is being submitted or followed.
func (s State) Generating() bool {
	return s == StateSubmitting || s == StateTracking
}

// Terminal reports whether the job reached an outcome.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Snapshot is the view model of a tracker at one point in time.
type Snapshot struct {
	State      State  `json:"state"`
	Generating bool   `json:"generating"`
	JobID      string `json:"job_id,omitempty"`
	TrackID    string `json:"track_id,omitempty"`
	// Progress is the displayed value: the highest progress seen for the job.
	Progress int `json:"progress"`
	// RawProgress is the value from the most recent update.
	RawProgress   int                 `json:"raw_progress"`
	Message       string              `json:"message,omitempty"`
	LastError     string              `json:"last_error,omitempty"`
	ErrorKind     string              `json:"error_kind,omitempty"`
	EstimatedTime int                 `json:"estimated_time,omitempty"`
	Request       *generation.Request `json:"request,omitempty"`
	SubmittedAt   time.Time           `json:"submitted_at,omitzero"`
	UpdatedAt     time.Time           `json:"updated_at,omitzero"`
}
