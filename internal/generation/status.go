package generation

import (
	"fmt"
	"math"
	"strings"
)

// State is the normalized lifecycle of a backend job.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Terminal reports whether no further updates are expected.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Status is one observation of a generation job.
type Status struct {
	JobID        string `json:"job_id"`
	State        State  `json:"state"`
	Progress     int    `json:"progress"`
	Message      string `json:"message,omitempty"`
	TrackID      string `json:"track_id,omitempty"`
	AudioURL     string `json:"audio_url,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
}

var stateAliases = map[string]State{
	"pending":   StateQueued,
	"received":  StateQueued,
	"queued":    StateQueued,
	"started":   StateRunning,
	"progress":  StateRunning,
	"retry":     StateRunning,
	"running":   StateRunning,
	"success":   StateSucceeded,
	"succeeded": StateSucceeded,
	"completed": StateSucceeded,
	"failure":   StateFailed,
	"revoked":   StateFailed,
	"failed":    StateFailed,
}

// ParseState maps a backend status string onto a State.
func ParseState(raw string) (State, error) {
	state, ok := stateAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("unknown job status %q", raw)
	}
	return state, nil
}

// ClampProgress rounds and bounds a backend progress value to 0..100.
func ClampProgress(value float64) int {
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return int(math.Round(value))
}
