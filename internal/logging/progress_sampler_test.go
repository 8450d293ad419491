package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize int
		wantSize   int
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSampler_NilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "running") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset()
}

func TestProgressSampler_PhaseChange(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(0, "queued") {
		t.Error("first phase should log")
	}
	if s.ShouldLog(0, "queued") {
		t.Error("same phase and percent should not log again")
	}
	if !s.ShouldLog(0, "running") {
		t.Error("different phase should log")
	}
	if s.lastPhase != "running" {
		t.Errorf("lastPhase = %q, want running", s.lastPhase)
	}
}

func TestProgressSampler_Buckets(t *testing.T) {
	s := NewProgressSampler(5)
	steps := []struct {
		percent int
		want    bool
	}{
		{0, true},
		{3, false},
		{5, true},
		{9, false},
		{40, true},
		// Going backwards never re-enters an earlier bucket.
		{35, false},
		{100, true},
		{140, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.percent, "running"); got != step.want {
			t.Fatalf("ShouldLog(%d) = %v, want %v", step.percent, got, step.want)
		}
	}
}

func TestProgressSampler_UnknownPercent(t *testing.T) {
	s := NewProgressSampler(5)
	if !s.ShouldLog(-1, "queued") {
		t.Error("phase change with unknown percent should log")
	}
	if s.ShouldLog(-1, "queued") {
		t.Error("unknown percent without phase change should not log")
	}
}

func TestProgressSampler_Reset(t *testing.T) {
	s := NewProgressSampler(5)
	s.ShouldLog(50, "running")
	s.Reset()
	if s.lastPhase != "" || s.lastBucket != -1 {
		t.Fatalf("Reset did not clear state: %+v", s)
	}
	if !s.ShouldLog(50, "running") {
		t.Error("expected log after reset")
	}
}
