package generation_test

import (
	"errors"
	"strings"
	"testing"

	"hitstudio/internal/generation"
	"hitstudio/internal/services"
)

func validRequest() generation.Request {
	return generation.Request{Prompt: "upbeat synthwave with driving bass", Duration: 30, Model: generation.ModelMedium}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*generation.Request)
		wantErr string
	}{
		{"valid", func(*generation.Request) {}, ""},
		{"empty prompt", func(r *generation.Request) { r.Prompt = "" }, "prompt is required"},
		{"whitespace prompt", func(r *generation.Request) { r.Prompt = " \t\n" }, "prompt is required"},
		{"prompt too long", func(r *generation.Request) { r.Prompt = strings.Repeat("a", 501) }, "exceeds 500"},
		{"prompt at limit in runes", func(r *generation.Request) { r.Prompt = strings.Repeat("é", 500) }, ""},
		{"odd duration", func(r *generation.Request) { r.Duration = 45 }, "duration 45s"},
		{"zero duration", func(r *generation.Request) { r.Duration = 0 }, "duration"},
		{"unknown model", func(r *generation.Request) { r.Model = "musicgen-huge" }, "model"},
		{"model case folded", func(r *generation.Request) { r.Model = "MusicGen-Large" }, ""},
		{"temperature too hot", func(r *generation.Request) { r.Temperature = 2 }, "temperature"},
		{"temperature at bound", func(r *generation.Request) { r.Temperature = 1.5 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid request, got %v", err)
				}
				return
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestRequestNormalized(t *testing.T) {
	req := generation.Request{Prompt: "  lo-fi beats  ", Duration: 60, Model: " MUSICGEN-SMALL "}.Normalized()
	if req.Prompt != "lo-fi beats" || req.Model != generation.ModelSmall {
		t.Fatalf("unexpected normalized request %+v", req)
	}
	if req.Temperature != generation.DefaultTemperature {
		t.Fatalf("expected default temperature, got %v", req.Temperature)
	}
}

func TestEstimatedTime(t *testing.T) {
	cases := map[int]int{15: 30, 30: 60, 60: 120, 120: 210, 180: 300}
	for duration, want := range cases {
		if got := generation.EstimatedTime(duration); got != want {
			t.Errorf("EstimatedTime(%d) = %d, want %d", duration, got, want)
		}
	}
}

func TestCatalogCopies(t *testing.T) {
	durations := generation.Durations()
	durations[0] = 999
	if generation.Durations()[0] != 15 {
		t.Fatal("Durations must return a copy")
	}
	if len(generation.SupportedModels()) != 3 {
		t.Fatalf("unexpected models %v", generation.SupportedModels())
	}
}

func TestParseState(t *testing.T) {
	cases := map[string]generation.State{
		"PENDING":   generation.StateQueued,
		"queued":    generation.StateQueued,
		"STARTED":   generation.StateRunning,
		"PROGRESS":  generation.StateRunning,
		"running":   generation.StateRunning,
		"SUCCESS":   generation.StateSucceeded,
		"completed": generation.StateSucceeded,
		"FAILURE":   generation.StateFailed,
		"REVOKED":   generation.StateFailed,
	}
	for raw, want := range cases {
		got, err := generation.ParseState(raw)
		if err != nil || got != want {
			t.Errorf("ParseState(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := generation.ParseState("EXPLODED"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestClampProgress(t *testing.T) {
	cases := map[float64]int{-4: 0, 0: 0, 40.4: 40, 74.6: 75, 100: 100, 140: 100}
	for in, want := range cases {
		if got := generation.ClampProgress(in); got != want {
			t.Errorf("ClampProgress(%v) = %d, want %d", in, got, want)
		}
	}
}
