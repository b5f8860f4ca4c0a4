// Package status exposes the client's liveness and throughput over
// HTTP and the gRPC health protocol.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/smanolloff/vcmi-mlclient/internal/metrics"
	"github.com/smanolloff/vcmi-mlclient/internal/session"
	"github.com/smanolloff/vcmi-mlclient/internal/storage"
)

// Server serves read-only status endpoints.
type Server struct {
	collector *metrics.Collector
	backend   storage.Backend
	sess      *session.Context
	logger    zerolog.Logger
}

// NewServer constructs a Server instance.
func NewServer(collector *metrics.Collector, backend storage.Backend, sess *session.Context, logger zerolog.Logger) *Server {
	return &Server{collector: collector, backend: backend, sess: sess, logger: logger}
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(CorrelationID)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/throughput", s.handleThroughput)
		r.Get("/session", s.handleSession)
		r.Get("/decisions/stats", s.handleDecisionStats)
	})
	return r
}

// ListenAndServe serves Routes on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Status server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.collector.Snapshot()
	status := "ok"
	if !snap.Running {
		status = "idle"
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": status, "running": snap.Running})
}

func (s *Server) handleThroughput(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.collector.Snapshot())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"id":       s.sess.ID.String(),
		"training": s.sess.Training,
		"left":     session.Describe(s.sess.Left),
		"right":    session.Describe(s.sess.Right),
	})
}

func (s *Server) handleDecisionStats(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = s.sess.ID.String()
	} else if sessionID == "all" {
		sessionID = ""
	}

	stats, err := s.backend.Stats(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}
