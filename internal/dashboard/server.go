package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/flock"

	"hitstudio/internal/config"
	"hitstudio/internal/logging"
	"hitstudio/internal/services"
	"hitstudio/internal/studio"
)

// Server exposes one studio session over HTTP.
type Server struct {
	cfg     *config.Config
	session *studio.Session
	logger  *slog.Logger

	lock     *flock.Flock
	listener net.Listener
	server   *http.Server

	// followCtx outlives individual requests so background tracking keeps
	// running after the submit response is written.
	followCtx    context.Context
	cancelFollow context.CancelFunc
	follows      sync.WaitGroup
}

// New constructs a dashboard server for session.
func New(cfg *config.Config, session *studio.Session, logger *slog.Logger) *Server {
	followCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:          cfg,
		session:      session,
		logger:       logging.NewComponentLogger(logger, "dashboard"),
		followCtx:    followCtx,
		cancelFollow: cancel,
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler builds the routed API. WriteTimeout is left unset on the server
// because the snapshot stream is long-lived.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, middleware.RealIP, middleware.Recoverer, requestLogger(s.logger))

	r.Get("/api/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(strings.TrimSpace(s.cfg.Dashboard.Token)))

		r.Route("/api/generation", func(r chi.Router) {
			r.Get("/", s.handleGetGeneration)
			r.Post("/", s.handleSubmit)
			r.Post("/reset", s.handleReset)
			r.Get("/stream", s.handleStream)
		})
		r.Route("/api/analysis", func(r chi.Router) {
			r.Get("/", s.handleGetAnalysis)
			r.Post("/", s.handleAnalyze)
			r.Delete("/", s.handleClearAnalysis)
			r.Get("/{trackID}/history", s.handleAnalysisHistory)
		})
		r.Get("/api/benchmarks", s.handleBenchmarks)
		r.Get("/api/history", s.handleHistory)
		r.Get("/api/leaderboard", s.handleLeaderboard)
		r.Get("/api/models", s.handleModels)
		r.Get("/api/tiers", s.handleTiers)
	})
	return r
}

// Start takes the dashboard lock, binds the configured address, and serves
// until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if err := s.cfg.EnsureDirectories(); err != nil {
		return err
	}
	lockPath := s.cfg.DashboardLockPath()
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire dashboard lock: %w", err)
	}
	if !ok {
		return services.Wrap(services.ErrConfiguration, "dashboard", "start",
			fmt.Sprintf("another dashboard is already running (lock %s)", lockPath), nil)
	}
	s.lock = lock

	bind := strings.TrimSpace(s.cfg.Dashboard.Bind)
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		_ = s.lock.Unlock()
		s.lock = nil
		return fmt.Errorf("dashboard listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("dashboard server error", logging.Error(err))
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.followCtx.Done():
		}
	}()

	s.logger.Info("dashboard listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", strings.TrimSpace(s.cfg.Dashboard.Token) != ""),
	)
	return nil
}

// Addr reports the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down, cancels background tracking, and
// releases the lock. It is safe to call more than once.
func (s *Server) Stop() {
	s.cancelFollow()
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	s.follows.Wait()
	if s.lock != nil {
		_ = s.lock.Unlock()
		s.lock = nil
	}
}

// followInBackground tracks jobID until it finishes or is replaced.
// requestID is carried so backend status calls share the submitting
// request's id.
func (s *Server) followInBackground(jobID, requestID string) {
	ctx := s.followCtx
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	s.follows.Add(1)
	go func() {
		defer s.follows.Done()
		snap, err := s.session.FollowJob(ctx, jobID)
		if err != nil {
			if errors.Is(err, services.ErrSuperseded) || errors.Is(err, context.Canceled) {
				s.logger.Debug("background tracking ended", logging.Error(err))
				return
			}
			s.logger.Warn("background tracking failed",
				logging.String(logging.FieldJobID, snap.JobID),
				logging.Error(err),
			)
			return
		}
		s.logger.Info("generation finished",
			logging.String(logging.FieldJobID, snap.JobID),
			logging.String("state", string(snap.State)),
			logging.String(logging.FieldTrackID, snap.TrackID),
		)
	}()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// writeFailure classifies err and writes it with the matching status.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusFor(err), newErrorResponse(err))
}
