package studio

import (
	"context"
	"errors"
	"log/slog"

	"hitstudio/internal/analysis"
	"hitstudio/internal/config"
	"hitstudio/internal/generation"
	"hitstudio/internal/history"
	"hitstudio/internal/logging"
	"hitstudio/internal/notifications"
	"hitstudio/internal/services"
	"hitstudio/internal/services/studioapi"
	"hitstudio/internal/tracker"
)

// Session ties the generation and analysis halves of the studio together.
type Session struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *history.Store
	notifier notifications.Service
	source   generation.Source

	generation *generation.Client
	analysis   *analysis.Client
	tracker    *tracker.Tracker
	meter      *analysis.Meter
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithStore records submissions and analyses in store.
func WithStore(store *history.Store) Option {
	return func(s *Session) {
		s.store = store
	}
}

// WithNotifier overrides the notifier built from config.
func WithNotifier(notifier notifications.Service) Option {
	return func(s *Session) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithSource replaces status polling with another observation source.
func WithSource(source generation.Source) Option {
	return func(s *Session) {
		s.source = source
	}
}

// New builds a session against the backend described by cfg.
func New(cfg *config.Config, opts ...Option) *Session {
	s := &Session{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "studio")
	if s.notifier == nil {
		s.notifier = notifications.NewService(cfg)
	}

	api := studioapi.NewClient(studioapi.Config{
		BaseURL:        cfg.Backend.BaseURL,
		APIKey:         cfg.Backend.APIKey,
		UserAgent:      cfg.Backend.UserAgent,
		TimeoutSeconds: cfg.Backend.RequestTimeout,
	}, studioapi.WithLogger(s.logger))
	s.generation = generation.NewClient(api, s.logger)
	s.analysis = analysis.NewClient(api, s.logger)
	s.meter = analysis.NewMeter(s.analysis, s.logger)
	s.tracker = tracker.New(s.generation,
		tracker.WithLogger(s.logger),
		tracker.WithOnComplete(s.jobCompleted),
		tracker.WithOnFailure(s.jobFailed),
	)
	if s.source == nil {
		s.source = generation.NewPoller(s.generation, cfg.PollInterval(), cfg.Generation.MaxPollFailures, s.logger)
	}
	return s
}

// Tracker exposes the session's job tracker.
func (s *Session) Tracker() *tracker.Tracker { return s.tracker }

// Meter exposes the session's analysis meter.
func (s *Session) Meter() *analysis.Meter { return s.meter }

// Generation exposes the generation client for catalog and status lookups.
func (s *Session) Generation() *generation.Client { return s.generation }

// Analysis exposes the analysis client for history and benchmark lookups.
func (s *Session) Analysis() *analysis.Client { return s.analysis }

// Store returns the history store, which may be nil.
func (s *Session) Store() *history.Store { return s.store }

// ApplyDefaults fills unset request fields from the [generation] config.
func (s *Session) ApplyDefaults(req generation.Request) generation.Request {
	if req.Model == "" {
		req.Model = s.cfg.Generation.DefaultModel
	}
	if req.Duration == 0 {
		req.Duration = s.cfg.Generation.DefaultDuration
	}
	if req.Temperature == 0 {
		req.Temperature = s.cfg.Generation.DefaultTemperature
	}
	return req
}

// Submit applies config defaults and submits through the tracker. Accepted
// jobs are recorded in history.
func (s *Session) Submit(ctx context.Context, req generation.Request) (tracker.Snapshot, error) {
	req = s.ApplyDefaults(req)
	snap, err := s.tracker.Submit(ctx, req)
	if err != nil {
		return snap, err
	}
	if s.store != nil {
		if _, err := s.store.RecordSubmission(ctx, snap.JobID, *snap.Request); err != nil {
			logging.WarnWithContext(s.logger, "failed to record submission", "history_write_failed",
				logging.String(logging.FieldJobID, snap.JobID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "job will be missing from local history"),
			)
		}
	}
	return snap, nil
}

// Follow drains status updates for the tracked job until it finishes. When
// auto-analysis is enabled, a completed track is analysed before returning;
// an analysis failure is logged and left on the meter.
func (s *Session) Follow(ctx context.Context) (tracker.Snapshot, error) {
	snap, err := s.tracker.Follow(ctx, s.source)
	return s.afterFollow(ctx, snap, err)
}

// FollowJob is Follow for one submitted job. It ends with
// services.ErrSuperseded when jobID has been reset or replaced.
func (s *Session) FollowJob(ctx context.Context, jobID string) (tracker.Snapshot, error) {
	snap, err := s.tracker.FollowJob(ctx, jobID, s.source)
	return s.afterFollow(ctx, snap, err)
}

func (s *Session) afterFollow(ctx context.Context, snap tracker.Snapshot, err error) (tracker.Snapshot, error) {
	if err != nil {
		return snap, err
	}
	if snap.State == tracker.StateCompleted && s.cfg.Generation.AutoAnalyze {
		if _, err := s.Analyze(ctx, snap.TrackID); err != nil && !errors.Is(err, services.ErrSuperseded) {
			logging.WarnWithContext(s.logger, "automatic analysis failed", "auto_analysis_failed",
				logging.String(logging.FieldTrackID, snap.TrackID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run hitstudio analyze "+snap.TrackID),
			)
		}
	}
	return snap, nil
}

// Reset abandons the tracked job. History marks it abandoned; the backend is
// not contacted.
func (s *Session) Reset(ctx context.Context) tracker.Snapshot {
	previous := s.tracker.Snapshot()
	s.tracker.Reset()
	if previous.State.Generating() && previous.JobID != "" && s.store != nil {
		err := s.store.UpdateGeneration(ctx, previous.JobID, history.GenerationUpdate{
			Status:   history.StatusAbandoned,
			Progress: previous.Progress,
		})
		if err != nil {
			s.logger.Debug("failed to mark job abandoned", logging.String(logging.FieldJobID, previous.JobID), logging.Error(err))
		}
	}
	return s.tracker.Snapshot()
}

// Analyze runs the meter for trackID and records a successful report.
func (s *Session) Analyze(ctx context.Context, trackID string) (analysis.Report, error) {
	report, err := s.meter.Analyze(ctx, trackID)
	if err != nil {
		if !errors.Is(err, services.ErrSuperseded) && !errors.Is(err, services.ErrValidation) {
			s.publish(ctx, notifications.EventError, notifications.Payload{"context": "analysis of " + trackID, "error": err})
		}
		return report, err
	}
	if s.store != nil {
		if _, err := s.store.RecordAnalysis(ctx, report); err != nil {
			logging.WarnWithContext(s.logger, "failed to record analysis", "history_write_failed",
				logging.String(logging.FieldTrackID, report.TrackID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "analysis will be missing from the leaderboard"),
			)
		}
	}
	s.publish(ctx, notifications.EventAnalysisCompleted, notifications.Payload{
		"trackID": report.TrackID,
		"score":   report.OverallScore,
		"tier":    report.Tier().Label,
	})
	return report, nil
}

func (s *Session) jobCompleted(snap tracker.Snapshot) {
	ctx := context.Background()
	if s.store != nil {
		err := s.store.UpdateGeneration(ctx, snap.JobID, history.GenerationUpdate{
			Status:   history.StatusCompleted,
			Progress: snap.Progress,
			TrackID:  snap.TrackID,
		})
		if err != nil {
			s.logger.Warn("failed to record completion", logging.String(logging.FieldJobID, snap.JobID), logging.Error(err))
		}
	}
	s.publish(ctx, notifications.EventGenerationCompleted, notifications.Payload{
		"trackID": snap.TrackID,
		"prompt":  promptOf(snap),
	})
}

func (s *Session) jobFailed(snap tracker.Snapshot) {
	ctx := context.Background()
	if s.store != nil && snap.JobID != "" {
		err := s.store.UpdateGeneration(ctx, snap.JobID, history.GenerationUpdate{
			Status:       history.StatusFailed,
			Progress:     snap.Progress,
			ErrorMessage: snap.LastError,
		})
		if err != nil {
			s.logger.Warn("failed to record failure", logging.String(logging.FieldJobID, snap.JobID), logging.Error(err))
		}
	}
	s.publish(ctx, notifications.EventGenerationFailed, notifications.Payload{"reason": snap.LastError})
}

func (s *Session) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := s.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(s.logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "notification was not delivered"),
		)
	}
}

func promptOf(snap tracker.Snapshot) string {
	if snap.Request == nil {
		return ""
	}
	return snap.Request.Prompt
}
