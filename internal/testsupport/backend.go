package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"hitstudio/internal/analysis"
	"hitstudio/internal/services/studioapi"
)

// JobStep is one scripted answer of the status endpoint, in the backend's
// own vocabulary (PENDING, PROGRESS, SUCCESS, FAILURE).
type JobStep struct {
	Status   string
	Progress float64
	Message  string
	TrackID  string
	Error    string
}

// CompletesWith is the default script: queued, two progress steps, success.
func CompletesWith(trackID string) []JobStep {
	return []JobStep{
		{Status: "PENDING"},
		{Status: "PROGRESS", Progress: 40, Message: "Composing"},
		{Status: "PROGRESS", Progress: 75, Message: "Mastering"},
		{Status: "SUCCESS", Progress: 100, TrackID: trackID},
	}
}

// FakeBackend is a scripted studio backend served over httptest.
type FakeBackend struct {
	Server *httptest.Server

	mu           sync.Mutex
	script       []JobStep
	jobs         map[string][]JobStep
	reports      map[string]analysis.Report
	rejectStatus int
	rejectDetail string
	nextJob      int
	createCalls  int
	statusCalls  int
	analyzeCalls int
	lastRequests []map[string]any
}

// NewFakeBackend starts a backend whose jobs complete with track "track-1".
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{
		script:  CompletesWith("track-1"),
		jobs:    make(map[string][]JobStep),
		reports: make(map[string]analysis.Report),
	}

	r := chi.NewRouter()
	r.Route("/api/songgen", func(r chi.Router) {
		r.Post("/generate", fb.handleGenerate)
		r.Get("/status/{jobID}", fb.handleStatus)
		r.Get("/models", fb.handleModels)
	})
	r.Route("/api/meter", func(r chi.Router) {
		r.Post("/analyze", fb.handleAnalyze)
		r.Get("/history/{trackID}", fb.handleHistory)
		r.Get("/benchmarks", fb.handleBenchmarks)
	})
	fb.Server = httptest.NewServer(r)
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL is the backend base URL.
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// Client returns a transport pointed at the backend.
func (fb *FakeBackend) Client() *studioapi.Client {
	return studioapi.NewClient(studioapi.Config{BaseURL: fb.Server.URL})
}

// Script replaces the steps that new jobs walk through. The last step
// repeats once the script is exhausted.
func (fb *FakeBackend) Script(steps ...JobStep) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.script = append([]JobStep(nil), steps...)
}

// RejectCreate makes the generate endpoint refuse with status and detail.
// A zero status restores normal behaviour.
func (fb *FakeBackend) RejectCreate(status int, detail string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.rejectStatus = status
	fb.rejectDetail = detail
}

// AddReport registers the analysis returned for report.TrackID.
func (fb *FakeBackend) AddReport(report analysis.Report) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.reports[report.TrackID] = report
}

// Calls reports how often each endpoint family was hit.
func (fb *FakeBackend) Calls() (create, status, analyze int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.createCalls, fb.statusCalls, fb.analyzeCalls
}

// LastCreateRequest returns the most recent generate payload.
func (fb *FakeBackend) LastCreateRequest() map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.lastRequests) == 0 {
		return nil
	}
	return fb.lastRequests[len(fb.lastRequests)-1]
}

func (fb *FakeBackend) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeBackendJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]string{{"msg": "invalid json"}}})
		return
	}

	fb.mu.Lock()
	fb.createCalls++
	fb.lastRequests = append(fb.lastRequests, payload)
	if fb.rejectStatus != 0 {
		status, detail := fb.rejectStatus, fb.rejectDetail
		fb.mu.Unlock()
		writeBackendJSON(w, status, map[string]any{"detail": detail})
		return
	}
	fb.nextJob++
	jobID := fmt.Sprintf("job-%d", fb.nextJob)
	fb.jobs[jobID] = append([]JobStep(nil), fb.script...)
	fb.mu.Unlock()

	writeBackendJSON(w, http.StatusOK, map[string]any{
		"task_id":        jobID,
		"status":         "queued",
		"estimated_time": 60,
		"message":        "Your track is being generated.",
	})
}

func (fb *FakeBackend) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	fb.mu.Lock()
	fb.statusCalls++
	steps, ok := fb.jobs[jobID]
	if !ok || len(steps) == 0 {
		fb.mu.Unlock()
		writeBackendJSON(w, http.StatusNotFound, map[string]any{"detail": "Task not found"})
		return
	}
	step := steps[0]
	if len(steps) > 1 {
		fb.jobs[jobID] = steps[1:]
	}
	fb.mu.Unlock()

	body := map[string]any{
		"task_id":  jobID,
		"status":   step.Status,
		"progress": step.Progress,
	}
	if step.Message != "" {
		body["message"] = step.Message
	}
	if step.TrackID != "" {
		body["result"] = map[string]any{"track_id": step.TrackID, "audio_url": "https://cdn.invalid/" + step.TrackID + ".wav"}
	}
	if step.Error != "" {
		body["error"] = step.Error
	}
	writeBackendJSON(w, http.StatusOK, body)
}

func (fb *FakeBackend) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeBackendJSON(w, http.StatusOK, map[string]any{"models": []map[string]any{
		{"id": "musicgen-small", "name": "MusicGen Small", "description": "Fast generation, good quality", "max_duration": 180, "recommended_duration": "2-3 minutes", "speed": "fast"},
		{"id": "musicgen-medium", "name": "MusicGen Medium", "description": "Balanced quality and speed", "max_duration": 360, "recommended_duration": "2-6 minutes", "speed": "medium"},
		{"id": "musicgen-large", "name": "MusicGen Large", "description": "Highest quality, slower generation", "max_duration": 360, "recommended_duration": "2-6 minutes", "speed": "slow"},
	}})
}

func (fb *FakeBackend) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TrackID string `json:"track_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	fb.mu.Lock()
	fb.analyzeCalls++
	report, ok := fb.reports[payload.TrackID]
	fb.mu.Unlock()
	if !ok {
		writeBackendJSON(w, http.StatusNotFound, map[string]any{"detail": "Track not found"})
		return
	}
	writeBackendJSON(w, http.StatusOK, report)
}

func (fb *FakeBackend) handleHistory(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "trackID")
	fb.mu.Lock()
	report, ok := fb.reports[trackID]
	fb.mu.Unlock()
	scores := []map[string]any{}
	if ok {
		scores = append(scores, map[string]any{"id": "score-1", "track_id": trackID, "overall_score": report.OverallScore})
	}
	writeBackendJSON(w, http.StatusOK, map[string]any{"track_id": trackID, "scores": scores})
}

func (fb *FakeBackend) handleBenchmarks(w http.ResponseWriter, _ *http.Request) {
	writeBackendJSON(w, http.StatusOK, analysis.LocalBenchmarks())
}

func writeBackendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
