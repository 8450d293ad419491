package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"hitstudio/internal/generation"
	"hitstudio/internal/logging"
	"hitstudio/internal/services"
)

const component = "tracker"

// Fallback messages used when the backend gives no reason.
const (
	RejectedFallback      = "Generation request was rejected"
	FailedFallback        = "Generation failed"
	MissingTrackIDMessage = "Generation finished without a track identifier"
)

const progressLogBucketPercent = 10

// ErrJobInFlight is returned by Submit while another job is being submitted
// or tracked. Call Reset first to abandon it.
var ErrJobInFlight = fmt.Errorf("%w: a generation job is already in flight", services.ErrValidation)

// Creator submits generation requests to the backend.
type Creator interface {
	Create(ctx context.Context, req generation.Request) (generation.Job, error)
}

// Hook receives the snapshot that triggered it.
type Hook func(Snapshot)

// Option customizes a Tracker.
type Option func(*Tracker)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithOnComplete registers a hook fired once when a job completes.
func WithOnComplete(hook Hook) Option {
	return func(t *Tracker) {
		t.onComplete = hook
	}
}

// WithOnFailure registers a hook fired once when a submission or job fails.
func WithOnFailure(hook Hook) Option {
	return func(t *Tracker) {
		t.onFailure = hook
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Tracker follows a single generation job. It is safe for concurrent use.
type Tracker struct {
	creator    Creator
	logger     *slog.Logger
	now        func() time.Time
	onComplete Hook
	onFailure  Hook

	mu        sync.Mutex
	snap      Snapshot
	epoch     uint64
	epochDone chan struct{}
	sampler   *logging.ProgressSampler
	subs      map[int]chan Snapshot
	nextSubID int
}

// New constructs an idle tracker that submits through creator.
func New(creator Creator, opts ...Option) *Tracker {
	t := &Tracker{
		creator:   creator,
		now:       time.Now,
		snap:      Snapshot{State: StateIdle},
		epochDone: make(chan struct{}),
		sampler:   logging.NewProgressSampler(progressLogBucketPercent),
		subs:      make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.NewComponentLogger(t.logger, component)
	return t
}

// Submit validates req and sends it to the backend. Invalid requests return
// a validation error without touching the state or the network. On success
// the tracker is tracking the returned job; on a backend rejection or
// transport failure it is failed with the reason recorded. If Reset is
// called while the create call is in flight, its result is discarded and
// services.ErrSuperseded returned.
func (t *Tracker) Submit(ctx context.Context, req generation.Request) (Snapshot, error) {
	if err := req.Validate(); err != nil {
		return t.Snapshot(), err
	}
	req = req.Normalized()

	t.mu.Lock()
	if t.snap.State.Generating() {
		snap := t.snap
		t.mu.Unlock()
		return snap, ErrJobInFlight
	}
	epoch := t.advanceEpochLocked()
	now := t.now()
	t.snap = Snapshot{
		State:       StateSubmitting,
		Generating:  true,
		Request:     &req,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	t.sampler.Reset()
	t.publishLocked()
	t.mu.Unlock()

	t.logger.Info("submitting generation",
		logging.String("model", req.Model),
		logging.Int("duration", req.Duration),
		logging.Float64("temperature", req.Temperature),
	)
	job, err := t.creator.Create(ctx, req)

	t.mu.Lock()
	if epoch != t.epoch {
		snap := t.snap
		t.mu.Unlock()
		t.logger.Debug("discarding superseded submission result", logging.String(logging.FieldJobID, job.JobID))
		return snap, services.Wrap(services.ErrSuperseded, component, "submit", "tracker was reset during submission", nil)
	}
	if err != nil {
		t.snap.State = StateFailed
		t.snap.Generating = false
		t.snap.LastError = submissionFailure(err)
		t.snap.ErrorKind = services.Kind(err)
		t.snap.UpdatedAt = t.now()
		t.publishLocked()
		snap := t.snap
		t.mu.Unlock()

		logging.WarnWithContext(t.logger, "generation submission failed", "generation_submit_failed",
			logging.String("reason", snap.LastError),
			logging.String("error_kind", snap.ErrorKind),
			logging.String(logging.FieldErrorHint, "submit again once the cause is addressed"),
			logging.String(logging.FieldImpact, "no job was started"),
		)
		t.fire(t.onFailure, snap)
		return snap, err
	}

	t.snap.State = StateTracking
	t.snap.JobID = job.JobID
	t.snap.Message = job.Message
	t.snap.EstimatedTime = job.EstimatedTime
	t.snap.UpdatedAt = t.now()
	t.publishLocked()
	snap := t.snap
	t.mu.Unlock()

	t.logger.Info("tracking generation job",
		logging.String(logging.FieldJobID, job.JobID),
		logging.Int("estimated_seconds", job.EstimatedTime),
	)
	return snap, nil
}

// submissionFailure picks the text shown to the user for a failed create.
func submissionFailure(err error) string {
	if reason, ok := services.RejectionReason(err); ok {
		if reason == "" {
			return RejectedFallback
		}
		return reason
	}
	return err.Error()
}

// Observe applies one status update. It returns false when the update was
// ignored because no job is tracked or it belongs to a different job.
func (t *Tracker) Observe(update generation.Status) bool {
	t.mu.Lock()
	if t.snap.State != StateTracking || update.JobID == "" || update.JobID != t.snap.JobID {
		t.mu.Unlock()
		return false
	}

	var hook Hook
	switch update.State {
	case generation.StateQueued, generation.StateRunning:
		t.recordProgressLocked(update.Progress)
		if update.Message != "" {
			t.snap.Message = update.Message
		}
	case generation.StateSucceeded:
		t.recordProgressLocked(update.Progress)
		if update.TrackID == "" {
			t.failLocked(MissingTrackIDMessage)
			hook = t.onFailure
			break
		}
		t.snap.State = StateCompleted
		t.snap.Generating = false
		t.snap.TrackID = update.TrackID
		if update.Message != "" {
			t.snap.Message = update.Message
		}
		hook = t.onComplete
	case generation.StateFailed:
		reason := update.ErrorMessage
		if reason == "" {
			reason = FailedFallback
		}
		t.failLocked(reason)
		hook = t.onFailure
	default:
		t.mu.Unlock()
		return false
	}
	t.snap.UpdatedAt = t.now()
	t.publishLocked()
	snap := t.snap
	logProgress := t.sampler.ShouldLog(snap.Progress, string(update.State))
	t.mu.Unlock()

	switch {
	case snap.State == StateCompleted:
		t.logger.Info("generation completed",
			logging.String(logging.FieldJobID, snap.JobID),
			logging.String(logging.FieldTrackID, snap.TrackID),
		)
	case snap.State == StateFailed:
		logging.WarnWithContext(t.logger, "generation failed", "generation_failed",
			logging.String(logging.FieldJobID, snap.JobID),
			logging.String("reason", snap.LastError),
			logging.String(logging.FieldImpact, "no track was produced"),
		)
	case logProgress:
		t.logger.Info("generation progress",
			logging.String(logging.FieldJobID, snap.JobID),
			logging.String("phase", string(update.State)),
			logging.Int("progress", snap.Progress),
		)
	}
	t.fire(hook, snap)
	return true
}

func (t *Tracker) recordProgressLocked(raw int) {
	raw = max(0, min(raw, 100))
	t.snap.RawProgress = raw
	t.snap.Progress = max(t.snap.Progress, raw)
}

func (t *Tracker) failLocked(reason string) {
	t.snap.State = StateFailed
	t.snap.Generating = false
	t.snap.LastError = reason
	t.snap.ErrorKind = services.KindRejected
}

// Reset abandons the current job and returns to idle. The backend is not
// told; an abandoned job keeps running there.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	previous := t.snap.JobID
	t.advanceEpochLocked()
	t.snap = Snapshot{State: StateIdle, UpdatedAt: t.now()}
	t.sampler.Reset()
	t.publishLocked()
	if previous != "" {
		t.logger.Debug("tracker reset", logging.String(logging.FieldJobID, previous))
	}
}

// Snapshot returns the current view model.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// Subscribe returns a channel that receives the current snapshot and every
// later change. Slow readers see only the latest snapshot. The returned
// function ends the subscription and closes the channel.
func (t *Tracker) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	t.mu.Lock()
	id := t.nextSubID
	t.nextSubID++
	t.subs[id] = ch
	ch <- t.snap
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subs, id)
			close(ch)
		})
	}
}

// Follow feeds updates for the tracked job from source into Observe until
// the job reaches an outcome, the tracker moves on to another job or is
// reset, or ctx ends.
func (t *Tracker) Follow(ctx context.Context, source generation.Source) (Snapshot, error) {
	return t.follow(ctx, "", source)
}

// FollowJob is Follow pinned to jobID. It returns services.ErrSuperseded
// without watching anything when jobID is no longer the tracked job.
func (t *Tracker) FollowJob(ctx context.Context, jobID string, source generation.Source) (Snapshot, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return t.Snapshot(), services.Wrap(services.ErrValidation, component, "follow", "job id is required", nil)
	}
	return t.follow(ctx, jobID, source)
}

func (t *Tracker) follow(ctx context.Context, want string, source generation.Source) (Snapshot, error) {
	t.mu.Lock()
	if want != "" && t.snap.JobID != want {
		snap := t.snap
		t.mu.Unlock()
		return snap, services.Wrap(services.ErrSuperseded, component, "follow", "job "+want+" is no longer tracked", nil)
	}
	if want != "" && t.snap.State.Terminal() {
		snap := t.snap
		t.mu.Unlock()
		return snap, nil
	}
	if t.snap.State != StateTracking {
		snap := t.snap
		t.mu.Unlock()
		return snap, services.Wrap(services.ErrValidation, component, "follow", "no job is being tracked", nil)
	}
	jobID := t.snap.JobID
	done := t.epochDone
	t.mu.Unlock()

	watchCtx, cancel := context.WithCancel(services.WithJobID(ctx, jobID))
	defer cancel()
	updates := source.Watch(watchCtx, jobID)

	for {
		select {
		case <-ctx.Done():
			return t.Snapshot(), ctx.Err()
		case <-done:
			return t.Snapshot(), services.Wrap(services.ErrSuperseded, component, "follow", "job "+jobID+" is no longer tracked", nil)
		case update, ok := <-updates:
			if !ok {
				snap := t.Snapshot()
				if snap.JobID == jobID && snap.State.Terminal() {
					return snap, nil
				}
				return snap, services.Wrap(services.ErrTransport, component, "follow", "status updates ended before job "+jobID+" finished", nil)
			}
			t.Observe(update)
			if snap := t.Snapshot(); snap.JobID == jobID && snap.State.Terminal() {
				return snap, nil
			}
		}
	}
}

func (t *Tracker) advanceEpochLocked() uint64 {
	t.epoch++
	close(t.epochDone)
	t.epochDone = make(chan struct{})
	return t.epoch
}

func (t *Tracker) publishLocked() {
	for _, ch := range t.subs {
		select {
		case <-ch:
		default:
		}
		ch <- t.snap
	}
}

func (t *Tracker) fire(hook Hook, snap Snapshot) {
	if hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(t.logger, "tracker hook panicked", "tracker_hook_panic",
				logging.String(logging.FieldJobID, snap.JobID),
				logging.Any("panic", r),
			)
		}
	}()
	hook(snap)
}
