/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the mobile/web client

ROUTE GROUPS:
  /api/tuitions/*   Tuition CRUD, attendance, payment, focus
  /api/focus        Clear calendar focus
  /api/marks        Calendar marks
  /api/reminders    Payment reminders
  /api/admin/*      Admin operations
  /healthz          Liveness

SECURITY NOTE:
  No authentication middleware. The tracker is a single-user tool.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins is used when no origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8081"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/tuitions", func(r chi.Router) {
			r.Get("/", h.ListTuitions)
			r.Post("/", h.CreateTuition)
			r.Get("/{id}", h.GetTuition)
			r.Put("/{id}", h.UpdateTuition)
			r.Delete("/{id}", h.DeleteTuition)
			r.Post("/{id}/attendance", h.ToggleAttendance)
			r.Post("/{id}/payment", h.TogglePayment)
			r.Put("/{id}/days-per-week", h.SetDaysPerWeek)
			r.Post("/{id}/focus", h.ToggleFocus)
		})

		r.Delete("/focus", h.ClearFocus)
		r.Get("/marks", h.GetMarks)
		r.Get("/reminders", h.ListReminders)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/rollover", h.TriggerRollover)
		})
	})

	return r
}
