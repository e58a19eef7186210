// Package server exposes the running session over HTTP: health, status,
// the camera preview, the live frame feed and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/garland/internal/capture"
	"github.com/ayusman/garland/internal/gesture"
	"github.com/ayusman/garland/internal/interaction"
	"github.com/ayusman/garland/internal/metrics"
	"github.com/ayusman/garland/internal/tracker"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const shutdownTimeout = 5 * time.Second

// Source is the session the server reports on.
type Source interface {
	ID() uuid.UUID
	Status() tracker.Status
	Snapshot() interaction.State
	Enabled() bool
	SetEnabled(enabled bool)
}

// Config holds the server configuration. Every field is optional; routes
// whose collaborator is missing are not registered.
type Config struct {
	StaticDir string
	Source    Source
	Preview   *capture.Preview
	Hub       *FrameHub
	Metrics   *metrics.Manager
	Logger    logrus.FieldLogger
}

// Server represents the HTTP server for a garland session.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    logrus.FieldLogger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    logger.WithField("component", "server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Source != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
		s.mux.HandleFunc("/api/enabled", s.handleEnabled)
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/frames", s.config.Hub)
	}

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics.Handler())
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Session  string          `json:"session"`
	Status   tracker.Status  `json:"status"`
	Failed   bool            `json:"failed"`
	Enabled  bool            `json:"enabled"`
	Gesture  gesture.Gesture `json:"gesture"`
	Strength float64         `json:"strength"`
	Cursor   mgl64.Vec3      `json:"cursor"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	src := s.config.Source
	state := src.Snapshot()
	status := src.Status()
	writeJSON(w, http.StatusOK, StatusResponse{
		Session:  src.ID().String(),
		Status:   status,
		Failed:   status.Failed(),
		Enabled:  src.Enabled(),
		Gesture:  state.Gesture,
		Strength: state.Strength,
		Cursor:   state.Cursor,
	})
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleEnabled reports detection state on GET and toggles it on PUT.
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req enabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			http.Error(w, `body must be {"enabled": true|false}`, http.StatusBadRequest)
			return
		}
		s.config.Source.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.config.Source.Enabled()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
