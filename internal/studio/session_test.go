package studio_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"hitstudio/internal/analysis"
	"hitstudio/internal/generation"
	"hitstudio/internal/history"
	"hitstudio/internal/notifications"
	"hitstudio/internal/services"
	"hitstudio/internal/studio"
	"hitstudio/internal/testsupport"
	"hitstudio/internal/tracker"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) Events() []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.Event(nil), r.events...)
}

func newSession(t *testing.T, autoAnalyze bool) (*studio.Session, *testsupport.FakeBackend, *history.Store, *recordingNotifier) {
	t.Helper()
	backend := testsupport.NewFakeBackend(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(backend.URL()), testsupport.WithAutoAnalyze(autoAnalyze))
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}
	return studio.New(cfg, studio.WithStore(store), studio.WithNotifier(notifier)), backend, store, notifier
}

func TestSessionGeneratesAndAnalyzes(t *testing.T) {
	session, backend, store, notifier := newSession(t, true)
	backend.AddReport(analysis.Report{
		TrackID:        "track-1",
		OverallScore:   72,
		CategoryScores: map[string]float64{"vocal_quality": 80},
	})
	ctx := context.Background()

	snap, err := session.Submit(ctx, generation.Request{Prompt: "festival house anthem"})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if snap.Request.Model != "musicgen-medium" || snap.Request.Duration != 30 {
		t.Fatalf("expected config defaults applied, got %+v", snap.Request)
	}
	if got := backend.LastCreateRequest(); got["model"] != "musicgen-medium" {
		t.Fatalf("unexpected backend payload %v", got)
	}

	final, err := session.Follow(ctx)
	if err != nil {
		t.Fatalf("Follow returned error: %v", err)
	}
	if final.State != tracker.StateCompleted || final.TrackID != "track-1" {
		t.Fatalf("unexpected final snapshot %+v", final)
	}

	state := session.Meter().Snapshot()
	if state.View == nil || state.View.Tier.Label != "Hit Potential" {
		t.Fatalf("expected auto analysis on the meter, got %+v", state)
	}

	gen, err := store.GetGeneration(ctx, final.JobID)
	if err != nil || gen == nil {
		t.Fatalf("GetGeneration = %v, %v", gen, err)
	}
	if gen.Status != history.StatusCompleted || gen.TrackID != "track-1" || gen.Progress != 100 {
		t.Fatalf("unexpected history record %+v", gen)
	}
	board, err := store.Leaderboard(ctx, 5)
	if err != nil || len(board) != 1 || board[0].Prompt != "festival house anthem" {
		t.Fatalf("unexpected leaderboard %+v (%v)", board, err)
	}

	events := notifier.Events()
	if len(events) != 2 || events[0] != notifications.EventGenerationCompleted || events[1] != notifications.EventAnalysisCompleted {
		t.Fatalf("unexpected notifications %v", events)
	}
}

func TestSessionRejectedSubmissionNotifiesWithoutHistory(t *testing.T) {
	session, backend, store, notifier := newSession(t, false)
	backend.RejectCreate(http.StatusTooManyRequests, "Generation quota exceeded. Please upgrade your plan.")

	snap, err := session.Submit(context.Background(), generation.Request{Prompt: "sad piano"})
	if !errors.Is(err, services.ErrBackendRejection) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if snap.LastError != "Generation quota exceeded. Please upgrade your plan." {
		t.Fatalf("unexpected last error %q", snap.LastError)
	}
	gens, err := store.ListGenerations(context.Background(), 0)
	if err != nil || len(gens) != 0 {
		t.Fatalf("rejected submission should not be recorded, got %d (%v)", len(gens), err)
	}
	if events := notifier.Events(); len(events) != 1 || events[0] != notifications.EventGenerationFailed {
		t.Fatalf("unexpected notifications %v", events)
	}
}

func TestSessionBackendFailureRecorded(t *testing.T) {
	session, backend, store, _ := newSession(t, false)
	backend.Script(
		testsupport.JobStep{Status: "PROGRESS", Progress: 35},
		testsupport.JobStep{Status: "FAILURE", Error: "GPU worker lost"},
	)
	ctx := context.Background()
	if _, err := session.Submit(ctx, generation.Request{Prompt: "metal riffs"}); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	final, err := session.Follow(ctx)
	if err != nil {
		t.Fatalf("Follow returned error: %v", err)
	}
	if final.State != tracker.StateFailed || final.LastError != "GPU worker lost" {
		t.Fatalf("unexpected final snapshot %+v", final)
	}
	gen, _ := store.GetGeneration(ctx, final.JobID)
	if gen == nil || gen.Status != history.StatusFailed || gen.ErrorMessage != "GPU worker lost" || gen.Progress != 35 {
		t.Fatalf("unexpected history record %+v", gen)
	}
}

func TestSessionResetMarksAbandoned(t *testing.T) {
	session, _, store, _ := newSession(t, false)
	ctx := context.Background()
	snap, err := session.Submit(ctx, generation.Request{Prompt: "jazz trio"})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if after := session.Reset(ctx); after.State != tracker.StateIdle {
		t.Fatalf("expected idle after reset, got %s", after.State)
	}
	gen, _ := store.GetGeneration(ctx, snap.JobID)
	if gen == nil || gen.Status != history.StatusAbandoned {
		t.Fatalf("expected abandoned record, got %+v", gen)
	}
}

func TestSessionAnalyzeNotFoundKeepsMeterEmpty(t *testing.T) {
	session, backend, _, notifier := newSession(t, false)
	_, err := session.Analyze(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, ok := session.Meter().Report(); ok {
		t.Fatal("expected no report after failed analysis")
	}
	if _, _, analyze := backend.Calls(); analyze != 1 {
		t.Fatalf("expected one analyze call, got %d", analyze)
	}
	if events := notifier.Events(); len(events) != 1 || events[0] != notifications.EventError {
		t.Fatalf("unexpected notifications %v", events)
	}
}

func TestSessionUsesInjectedSource(t *testing.T) {
	backend := testsupport.NewFakeBackend(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(backend.URL()))
	updates := make(chan generation.Status, 2)
	session := studio.New(cfg, studio.WithSource(generation.ChannelSource{C: updates}))

	snap, err := session.Submit(context.Background(), generation.Request{Prompt: "chiptune boss fight"})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	updates <- generation.Status{JobID: snap.JobID, State: generation.StateRunning, Progress: 50}
	updates <- generation.Status{JobID: snap.JobID, State: generation.StateSucceeded, Progress: 100, TrackID: "pushed"}

	final, err := session.Follow(context.Background())
	if err != nil || final.TrackID != "pushed" {
		t.Fatalf("unexpected follow result %+v, %v", final, err)
	}
	if _, status, _ := backend.Calls(); status != 0 {
		t.Fatalf("status endpoint polled despite injected source: %d calls", status)
	}
}

func TestSessionFollowJobSkipsReplacedJob(t *testing.T) {
	backend := testsupport.NewFakeBackend(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(backend.URL()))
	updates := make(chan generation.Status, 1)
	session := studio.New(cfg, studio.WithSource(generation.ChannelSource{C: updates}))
	ctx := context.Background()

	first, err := session.Submit(ctx, generation.Request{Prompt: "first idea"})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	session.Reset(ctx)
	second, err := session.Submit(ctx, generation.Request{Prompt: "second idea"})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if first.JobID == second.JobID {
		t.Fatalf("expected distinct jobs, got %s twice", first.JobID)
	}

	if _, err := session.FollowJob(ctx, first.JobID); !errors.Is(err, services.ErrSuperseded) {
		t.Fatalf("expected superseded error for replaced job, got %v", err)
	}

	updates <- generation.Status{JobID: second.JobID, State: generation.StateSucceeded, Progress: 100, TrackID: "second-track"}
	final, err := session.FollowJob(ctx, second.JobID)
	if err != nil || final.TrackID != "second-track" {
		t.Fatalf("unexpected follow result %+v, %v", final, err)
	}
}
