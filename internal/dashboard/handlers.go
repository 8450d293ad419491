package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hitstudio/internal/analysis"
	"hitstudio/internal/generation"
	"hitstudio/internal/history"
	"hitstudio/internal/logging"
	"hitstudio/internal/score"
	"hitstudio/internal/services"
)

const (
	defaultListLimit = 50
	maxBodyBytes     = 64 << 10
)

type analyzeRequest struct {
	TrackID string `json:"track_id"`
}

type benchmarksResponse struct {
	Benchmarks analysis.Benchmarks `json:"benchmarks"`
	Source     string              `json:"source"`
}

type historyResponse struct {
	Items []*history.Generation `json:"items"`
}

type leaderboardResponse struct {
	Entries []history.LeaderboardEntry `json:"entries"`
}

type analysisHistoryResponse struct {
	Remote []analysis.HistoryEntry `json:"remote"`
	Local  []*history.Analysis     `json:"local"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetGeneration(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Tracker().Snapshot())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req generation.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	snap, err := s.session.Submit(r.Context(), req)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	rid, _ := services.RequestIDFromContext(r.Context())
	s.followInBackground(snap.JobID, rid)
	s.writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Reset(r.Context()))
}

// handleStream sends tracker snapshots as server-sent events until the
// client disconnects or the server stops.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	updates, cancel := s.session.Tracker().Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.followCtx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				s.logger.Error("failed to encode snapshot", logging.Error(err))
				return
			}
			if _, err := fmt.Fprintf(w, "event: generation\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Meter().Snapshot())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if _, err := s.session.Analyze(r.Context(), req.TrackID); err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.Meter().Snapshot())
}

func (s *Server) handleClearAnalysis(w http.ResponseWriter, _ *http.Request) {
	s.session.Meter().Clear()
	s.writeJSON(w, http.StatusOK, s.session.Meter().Snapshot())
}

func (s *Server) handleAnalysisHistory(w http.ResponseWriter, r *http.Request) {
	trackID := strings.TrimSpace(chi.URLParam(r, "trackID"))
	remote, err := s.session.Analysis().History(r.Context(), trackID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	resp := analysisHistoryResponse{Remote: remote}
	if store := s.session.Store(); store != nil {
		local, err := store.ListAnalyses(r.Context(), trackID, queryLimit(r))
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Local = local
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleBenchmarks answers from the backend and falls back to the local
// tier table when the backend cannot be reached.
func (s *Server) handleBenchmarks(w http.ResponseWriter, r *http.Request) {
	benchmarks, err := s.session.Analysis().Benchmarks(r.Context())
	if err != nil {
		if !errors.Is(err, services.ErrTransport) {
			s.writeFailure(w, err)
			return
		}
		logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "benchmarks unavailable, using local table", "benchmarks_fallback",
			logging.Error(err),
			logging.String(logging.FieldImpact, "benchmark weights may differ from the backend"),
		)
		s.writeJSON(w, http.StatusOK, benchmarksResponse{Benchmarks: analysis.LocalBenchmarks(), Source: "local"})
		return
	}
	s.writeJSON(w, http.StatusOK, benchmarksResponse{Benchmarks: benchmarks, Source: "backend"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	store := s.session.Store()
	if store == nil {
		s.writeJSON(w, http.StatusOK, historyResponse{Items: nil})
		return
	}
	var statuses []history.Status
	for _, value := range r.URL.Query()["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		statuses = append(statuses, history.Status(trimmed))
	}
	items, err := store.ListGenerations(r.Context(), queryLimit(r), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, historyResponse{Items: items})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	store := s.session.Store()
	if store == nil {
		s.writeJSON(w, http.StatusOK, leaderboardResponse{Entries: nil})
		return
	}
	entries, err := store.Leaderboard(r.Context(), queryLimit(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, leaderboardResponse{Entries: entries})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.session.Generation().Models(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (s *Server) handleTiers(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"tiers": score.Ranges()})
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}
