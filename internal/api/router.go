package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cherubic/NLog/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such endpoint")
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.requirePermission(auth.PermStatusRead))
			r.Get("/status", s.handleStatus)
			r.Get("/system", s.handleSystemMetrics)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requirePermission(auth.PermInstanceControl))
			r.Post("/suspend", s.handleSuspend)
			r.Post("/resume", s.handleResume)
			r.Post("/reload", s.handleReload)
			r.Delete("/configuration", s.handleUnload)
		})

		r.With(s.requirePermission(auth.PermAuditRead)).Get("/audit", s.handleListAuditLogs)
	})

	return r
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}
