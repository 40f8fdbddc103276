// Package http exposes the latest ranking and ownership summary as a
// read-only JSON API, plus health, metrics and a websocket stream.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default, local-only configuration. The
// port can be overridden with the HTTP_PORT environment variable.
func DefaultServerConfig() ServerConfig {
	port := 8080
	if portStr := os.Getenv("HTTP_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// HealthChecker reports the health of an optional backing service.
type HealthChecker func(ctx context.Context) bool

// Server is the read-only HTTP server over the scoring state.
type Server struct {
	router  *mux.Router
	server  *http.Server
	state   *State
	hub     *Hub
	metrics *MetricsRegistry
	config  ServerConfig

	checkers map[string]HealthChecker
}

// NewServer creates a server around the given state. The hub is wired to the
// state so every update is broadcast to websocket clients.
func NewServer(config ServerConfig, state *State, metrics *MetricsRegistry) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		state:    state,
		hub:      NewHub(metrics),
		metrics:  metrics,
		config:   config,
		checkers: make(map[string]HealthChecker),
	}

	state.OnUpdate(s.hub.Broadcast)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// AddHealthCheck registers a named backing-service health probe.
func (s *Server) AddHealthCheck(name string, check HealthChecker) {
	s.checkers[name] = check
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/ranking", s.instrument("ranking", s.handleRanking)).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.instrument("summary", s.handleSummary)).Methods(http.MethodGet)
	api.HandleFunc("/diagnostics", s.instrument("diagnostics", s.handleDiagnostics)).Methods(http.MethodGet)
	api.HandleFunc("/deposits/{name}", s.instrument("deposit", s.handleDeposit)).Methods(http.MethodGet)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	s.router.HandleFunc("/ws", s.hub.ServeWS(s.state))
}

// instrument wraps a handler with request counting.
func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.HTTPRequests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.state.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no ranking available yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batch_id":     snap.BatchID,
		"generated_at": snap.GeneratedAt,
		"ranking":      snap.Ranking,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.state.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no ranking available yet")
		return
	}
	writeJSON(w, http.StatusOK, snap.Summary)
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.state.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no ranking available yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batch_id":    snap.BatchID,
		"diagnostics": snap.Diagnostics,
	})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	rec, ok := s.state.Deposit(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown deposit %q", name))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	type serviceHealth struct {
		Name    string `json:"name"`
		Healthy bool   `json:"healthy"`
	}

	healthy := true
	services := make([]serviceHealth, 0, len(s.checkers))
	for name, check := range s.checkers {
		ok := check(r.Context())
		healthy = healthy && ok
		services = append(services, serviceHealth{Name: name, Healthy: ok})
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	writeJSON(w, status, map[string]interface{}{
		"status":   overall,
		"records":  s.state.Count(),
		"ws":       s.hub.ClientCount(),
		"services": services,
		"time":     time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
