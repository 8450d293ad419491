package history_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"hitstudio/internal/analysis"
	"hitstudio/internal/generation"
	"hitstudio/internal/history"
	"hitstudio/internal/testsupport"
)

func sampleRequest() generation.Request {
	return generation.Request{Prompt: "dreamy shoegaze guitars", Duration: 60, Model: "MusicGen-Small"}
}

func TestRecordSubmissionAndGet(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	gen, err := store.RecordSubmission(ctx, "job-1", sampleRequest())
	if err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}
	if gen.ID == 0 || gen.Status != history.StatusSubmitted {
		t.Fatalf("unexpected record %#v", gen)
	}
	if gen.Model != generation.ModelSmall || gen.Temperature != generation.DefaultTemperature {
		t.Fatalf("expected normalized request fields, got %#v", gen)
	}
	if gen.CreatedAt.IsZero() {
		t.Fatal("expected created timestamp")
	}

	missing, err := store.GetGeneration(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for unknown job, got %#v, %v", missing, err)
	}
	if _, err := store.RecordSubmission(ctx, "job-1", sampleRequest()); err == nil {
		t.Fatal("expected duplicate job id to fail")
	}
	if _, err := store.RecordSubmission(ctx, " ", sampleRequest()); err == nil {
		t.Fatal("expected blank job id to fail")
	}
}

func TestUpdateGenerationKeepsHighestProgress(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if _, err := store.RecordSubmission(ctx, "job-1", sampleRequest()); err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}

	if err := store.UpdateGeneration(ctx, "job-1", history.GenerationUpdate{Status: history.StatusSubmitted, Progress: 60}); err != nil {
		t.Fatalf("UpdateGeneration failed: %v", err)
	}
	if err := store.UpdateGeneration(ctx, "job-1", history.GenerationUpdate{Status: history.StatusCompleted, Progress: 20, TrackID: "t1"}); err != nil {
		t.Fatalf("UpdateGeneration failed: %v", err)
	}
	gen, err := store.GetGeneration(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetGeneration failed: %v", err)
	}
	if gen.Progress != 60 || gen.Status != history.StatusCompleted || gen.TrackID != "t1" {
		t.Fatalf("unexpected record %#v", gen)
	}

	if err := store.UpdateGeneration(ctx, "job-1", history.GenerationUpdate{Status: history.StatusCompleted, Progress: 100, TrackID: "t2"}); err != nil {
		t.Fatalf("UpdateGeneration failed: %v", err)
	}
	gen, err = store.GetGeneration(ctx, "job-1")
	if err != nil || gen.TrackID != "t1" || gen.Progress != 100 {
		t.Fatalf("expected earlier track id kept, got %#v, %v", gen, err)
	}

	found, err := store.FindByTrack(ctx, "t1")
	if err != nil || found == nil || found.JobID != "job-1" {
		t.Fatalf("FindByTrack = %#v, %v", found, err)
	}

	if err := store.UpdateGeneration(ctx, "ghost", history.GenerationUpdate{Status: history.StatusFailed}); err == nil {
		t.Fatal("expected error updating unknown job")
	}
}

func TestListGenerationsFiltersAndOrders(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.RecordSubmission(ctx, id, sampleRequest()); err != nil {
			t.Fatalf("RecordSubmission %s: %v", id, err)
		}
	}
	if err := store.UpdateGeneration(ctx, "b", history.GenerationUpdate{Status: history.StatusFailed, ErrorMessage: "boom"}); err != nil {
		t.Fatalf("UpdateGeneration failed: %v", err)
	}

	all, err := store.ListGenerations(ctx, 0)
	if err != nil {
		t.Fatalf("ListGenerations failed: %v", err)
	}
	if len(all) != 3 || all[0].JobID != "c" || all[2].JobID != "a" {
		t.Fatalf("expected newest first, got %v", jobIDs(all))
	}

	limited, err := store.ListGenerations(ctx, 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("expected limit of 2, got %d (%v)", len(limited), err)
	}

	failed, err := store.ListGenerations(ctx, 0, history.StatusFailed)
	if err != nil {
		t.Fatalf("ListGenerations failed: %v", err)
	}
	if len(failed) != 1 || failed[0].JobID != "b" || failed[0].ErrorMessage != "boom" {
		t.Fatalf("unexpected failed list %#v", failed)
	}
}

func jobIDs(gens []*history.Generation) []string {
	out := make([]string, 0, len(gens))
	for _, g := range gens {
		out = append(out, g.JobID)
	}
	return out
}

func TestAnalysesAndLeaderboard(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.RecordSubmission(ctx, "job-1", sampleRequest()); err != nil {
		t.Fatalf("RecordSubmission failed: %v", err)
	}
	if err := store.UpdateGeneration(ctx, "job-1", history.GenerationUpdate{Status: history.StatusCompleted, Progress: 100, TrackID: "t1"}); err != nil {
		t.Fatalf("UpdateGeneration failed: %v", err)
	}

	reports := []analysis.Report{
		{TrackID: "t1", OverallScore: 64, CategoryScores: map[string]float64{"innovation": 70}, Insights: []string{"Solid groove"}},
		{TrackID: "t2", OverallScore: 88},
		{TrackID: "t1", OverallScore: 73, Recommendations: []string{"Shorten the intro"}},
	}
	for _, report := range reports {
		if _, err := store.RecordAnalysis(ctx, report); err != nil {
			t.Fatalf("RecordAnalysis failed: %v", err)
		}
	}
	if _, err := store.RecordAnalysis(ctx, analysis.Report{}); err == nil {
		t.Fatal("expected error for report without track id")
	}

	t1, err := store.ListAnalyses(ctx, "t1", 0)
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(t1) != 2 || t1[0].OverallScore != 73 || t1[0].Recommendations[0] != "Shorten the intro" {
		t.Fatalf("unexpected t1 analyses %#v", t1)
	}
	if t1[1].Categories["innovation"] != 70 || t1[1].Tier.Label != "Radio Ready" {
		t.Fatalf("unexpected decoded analysis %#v", t1[1])
	}

	board, err := store.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected two tracks, got %#v", board)
	}
	if board[0].TrackID != "t2" || board[0].Rank != 1 || board[0].Tier.Label != "Grammy Worthy" {
		t.Fatalf("unexpected leader %#v", board[0])
	}
	if board[1].TrackID != "t1" || board[1].BestScore != 73 || board[1].Analyses != 2 {
		t.Fatalf("unexpected runner-up %#v", board[1])
	}
	if board[1].Prompt != "dreamy shoegaze guitars" {
		t.Fatalf("expected prompt joined from generations, got %q", board[1].Prompt)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	path := store.Path()
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(cfg); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
