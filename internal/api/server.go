// Package api provides the HTTP server for Shadow. It exposes the practice
// event ingest, the stats queries, and the popup state machine over REST.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shadowlingo/shadow/internal/app/presenter"
	"github.com/shadowlingo/shadow/internal/app/stats"
)

// Server is the Shadow HTTP API server.
type Server struct {
	agg            *stats.Aggregator
	streak         *stats.StreakService
	ctrl           *presenter.Controller
	userID         string
	version        string
	metricsEnabled bool
}

// NewServer creates an API server.
func NewServer(agg *stats.Aggregator, streak *stats.StreakService, ctrl *presenter.Controller, userID, version string) *Server {
	return &Server{
		agg:     agg,
		streak:  streak,
		ctrl:    ctrl,
		userID:  userID,
		version: version,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": s.version,
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/events", s.handleRecordEvent)
		r.Post("/sync", s.handleForceSync)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/summary", s.handleSummary)
			r.Get("/daily", s.handleDaily)
			r.Get("/languages", s.handleLanguages)
			r.Get("/streak", s.handleStreak)
			r.Get("/milestones", s.handleMilestones)
		})

		r.Route("/presentation", func(r chi.Router) {
			r.Get("/state", s.handlePresentationState)
			r.Post("/notice", s.handleNotice)
			r.Post("/complete", s.handleCompleteList)
			r.Post("/advance", s.handleAdvance)
			r.Post("/finish", s.handleFinish)
			r.Post("/dismiss", s.handleDismiss)
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
