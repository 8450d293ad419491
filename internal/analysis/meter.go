package analysis

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"hitstudio/internal/logging"
	"hitstudio/internal/score"
	"hitstudio/internal/services"
)

// Analyzer produces a report for a track.
type Analyzer interface {
	Analyze(ctx context.Context, trackID string) (Report, error)
}

// State is a point-in-time copy of the meter for views.
type State struct {
	TrackID   string      `json:"track_id,omitempty"`
	Analyzing bool        `json:"analyzing"`
	Report    *Report     `json:"report,omitempty"`
	View      *score.View `json:"view,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorKind string      `json:"error_kind,omitempty"`
}

// Meter holds the latest analysis report for one view. Requests are tagged
// with a sequence number; only the response to the newest request may
// change the held report.
type Meter struct {
	analyzer Analyzer
	logger   *slog.Logger

	mu        sync.Mutex
	seq       uint64
	trackID   string
	analyzing bool
	report    *Report
	lastErr   error
}

// NewMeter constructs an empty meter.
func NewMeter(analyzer Analyzer, logger *slog.Logger) *Meter {
	return &Meter{analyzer: analyzer, logger: logging.NewComponentLogger(logger, "meter")}
}

// Analyze requests a report for trackID and, if no newer request or Clear
// happened meanwhile, makes it the held report. A superseded response is
// dropped and services.ErrSuperseded returned. On failure the previously
// held report stays in place and the error is recorded. A blank track id is
// rejected without touching the meter.
func (m *Meter) Analyze(ctx context.Context, trackID string) (Report, error) {
	trackID = strings.TrimSpace(trackID)
	if trackID == "" {
		return Report{}, services.Wrap(services.ErrValidation, component, "analyze", "track id is required", nil)
	}

	m.mu.Lock()
	m.seq++
	token := m.seq
	m.trackID = trackID
	m.analyzing = true
	m.lastErr = nil
	m.mu.Unlock()

	report, err := m.analyzer.Analyze(services.WithTrackID(ctx, trackID), trackID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if token != m.seq {
		m.logger.Debug("discarding superseded analysis",
			logging.String(logging.FieldTrackID, trackID),
			logging.String("current_track_id", m.trackID),
		)
		return Report{}, services.Wrap(services.ErrSuperseded, component, "analyze", "track "+trackID+" is no longer requested", nil)
	}
	m.analyzing = false
	if err != nil {
		m.lastErr = err
		logging.WarnWithContext(m.logger, "analysis failed", "analysis_failed",
			logging.String(logging.FieldTrackID, trackID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "previous report kept"),
		)
		return Report{}, err
	}
	held := report.Clone()
	m.report = &held
	return report.Clone(), nil
}

// Clear drops the held report and invalidates any request in flight.
func (m *Meter) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.trackID = ""
	m.analyzing = false
	m.report = nil
	m.lastErr = nil
}

// Report returns a copy of the held report.
func (m *Meter) Report() (Report, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.report == nil {
		return Report{}, false
	}
	return m.report.Clone(), true
}

// Snapshot returns the meter state for display.
func (m *Meter) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := State{TrackID: m.trackID, Analyzing: m.analyzing}
	if m.report != nil {
		report := m.report.Clone()
		view := report.Describe()
		state.Report = &report
		state.View = &view
	}
	if m.lastErr != nil {
		state.Error = m.lastErr.Error()
		state.ErrorKind = services.Kind(m.lastErr)
	}
	return state
}
