package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", s.handleHealth)

		// Monitor endpoints
		r.Route("/monitor", func(r chi.Router) {
			r.Get("/telegrams", s.handleGetTelegrams)
			r.Get("/status", s.handleGetStatus)
			r.Post("/pause", s.handleTogglePause)
			r.Post("/reload", s.handleReload)
			r.Post("/retry", s.handleRetryConnection)
			r.Post("/telegrams/clear", s.handleClearTelegrams)

			r.Route("/filters", func(r chi.Router) {
				r.Delete("/", s.handleClearFilters)
				r.Post("/{field}/toggle", s.handleToggleFilterValue)
				r.Put("/{field}", s.handleSetFilterValues)
			})

			r.Put("/sort", s.handleSetSort)
			r.Put("/selection", s.handleSelectTelegram)
			r.Post("/navigate", s.handleNavigateTelegram)
			r.Put("/expanded-filter", s.handleSetExpandedFilter)
		})

		// Observed-address catalogue
		r.Route("/addresses", func(r chi.Router) {
			r.Get("/groups", s.handleListGroupAddresses)
			r.Get("/devices", s.handleListDevices)
		})

		// WebSocket change notifications
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
