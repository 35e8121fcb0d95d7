// Package http exposes the project's query API plus health, readiness, and
// metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/seismic-project-service/internal/domain"
)

// StationResolver answers the per-event station coordinate query.
type StationResolver interface {
	AllStationsForEvent(ctx context.Context, eventName string) (map[string]domain.Coordinates, error)
}

// EventReader serves event lookups and listings.
type EventReader interface {
	Get(name string) (domain.Event, error)
	List() ([]string, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the project HTTP API.
type Server struct {
	httpServer *http.Server
	events     EventReader
	resolver   StationResolver
	logger     *slog.Logger
}

// NewServer creates an HTTP server with health, metrics, and event routes.
func NewServer(addr string, events EventReader, resolver StationResolver, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		events:   events,
		resolver: resolver,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /events", s.handleListEvents)
	mux.HandleFunc("GET /events/{name}", s.handleGetEvent)
	mux.HandleFunc("GET /events/{name}/stations", s.handleEventStations)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	names, err := s.events.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": names,
		"count":  len(names),
	})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	event, err := s.events.Get(name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Name string `json:"name"`
		domain.Event
	}{Name: name, Event: event})
}

func (s *Server) handleEventStations(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	stations, err := s.resolver.AllStationsForEvent(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event":    name,
		"stations": stations,
		"count":    len(stations),
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if domain.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	s.logger.Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
