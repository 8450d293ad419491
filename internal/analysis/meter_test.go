package analysis_test

import (
	"context"
	"errors"
	"testing"

	"hitstudio/internal/analysis"
	"hitstudio/internal/services"
)

type analyzerFunc func(ctx context.Context, trackID string) (analysis.Report, error)

func (f analyzerFunc) Analyze(ctx context.Context, trackID string) (analysis.Report, error) {
	return f(ctx, trackID)
}

func TestMeterHoldsLatestReport(t *testing.T) {
	meter := analysis.NewMeter(analyzerFunc(func(_ context.Context, id string) (analysis.Report, error) {
		return analysis.Report{TrackID: id, OverallScore: 88}, nil
	}), nil)

	if _, err := meter.Analyze(context.Background(), "t1"); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	state := meter.Snapshot()
	if state.Analyzing || state.Report == nil || state.Report.TrackID != "t1" {
		t.Fatalf("unexpected state %+v", state)
	}
	if state.View == nil || state.View.Tier.Label != "Grammy Worthy" {
		t.Fatalf("unexpected view %+v", state.View)
	}
}

func TestMeterFailureKeepsPreviousReport(t *testing.T) {
	fail := false
	meter := analysis.NewMeter(analyzerFunc(func(_ context.Context, id string) (analysis.Report, error) {
		if fail {
			return analysis.Report{}, services.Wrap(services.ErrTransport, "analysis", "analyze", "request failed", nil)
		}
		return analysis.Report{TrackID: id, OverallScore: 61}, nil
	}), nil)

	if _, err := meter.Analyze(context.Background(), "t1"); err != nil {
		t.Fatalf("first analysis failed: %v", err)
	}
	fail = true
	if _, err := meter.Analyze(context.Background(), "t2"); !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	state := meter.Snapshot()
	if state.Report == nil || state.Report.TrackID != "t1" {
		t.Fatalf("expected previous report to survive, got %+v", state.Report)
	}
	if state.ErrorKind != services.KindTransport || state.Error == "" {
		t.Fatalf("expected recorded transport error, got %+v", state)
	}
}

func TestMeterDiscardsSupersededResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	meter := analysis.NewMeter(analyzerFunc(func(_ context.Context, id string) (analysis.Report, error) {
		if id == "slow" {
			close(started)
			<-release
			return analysis.Report{TrackID: "slow", OverallScore: 10}, nil
		}
		return analysis.Report{TrackID: id, OverallScore: 90}, nil
	}), nil)

	done := make(chan error, 1)
	go func() {
		_, err := meter.Analyze(context.Background(), "slow")
		done <- err
	}()
	<-started
	if _, err := meter.Analyze(context.Background(), "fast"); err != nil {
		t.Fatalf("fast analysis failed: %v", err)
	}
	close(release)
	if err := <-done; !errors.Is(err, services.ErrSuperseded) {
		t.Fatalf("expected superseded error, got %v", err)
	}
	report, ok := meter.Report()
	if !ok || report.TrackID != "fast" {
		t.Fatalf("late response replaced the newer report: %+v", report)
	}
}

func TestMeterClearDropsReportAndInFlightResult(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	meter := analysis.NewMeter(analyzerFunc(func(_ context.Context, id string) (analysis.Report, error) {
		close(started)
		<-release
		return analysis.Report{TrackID: id, OverallScore: 50}, nil
	}), nil)

	done := make(chan error, 1)
	go func() {
		_, err := meter.Analyze(context.Background(), "t1")
		done <- err
	}()
	<-started
	meter.Clear()
	close(release)
	if err := <-done; !errors.Is(err, services.ErrSuperseded) {
		t.Fatalf("expected superseded error after Clear, got %v", err)
	}
	if _, ok := meter.Report(); ok {
		t.Fatal("expected no report after Clear")
	}
	if state := meter.Snapshot(); state.Analyzing || state.TrackID != "" {
		t.Fatalf("unexpected state after Clear %+v", state)
	}
}

func TestMeterBlankTrackIDLeavesRequestInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	meter := analysis.NewMeter(analyzerFunc(func(_ context.Context, id string) (analysis.Report, error) {
		if id == "" {
			t.Error("analyzer called with blank track id")
		}
		close(started)
		<-release
		return analysis.Report{TrackID: id, OverallScore: 72}, nil
	}), nil)

	done := make(chan error, 1)
	go func() {
		_, err := meter.Analyze(context.Background(), "t1")
		done <- err
	}()
	<-started

	if _, err := meter.Analyze(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if state := meter.Snapshot(); !state.Analyzing || state.TrackID != "t1" || state.ErrorKind != "" {
		t.Fatalf("blank request disturbed state %+v", state)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("valid analysis was superseded: %v", err)
	}
	report, ok := meter.Report()
	if !ok || report.TrackID != "t1" {
		t.Fatalf("expected report for t1, got %+v (ok=%v)", report, ok)
	}
}
