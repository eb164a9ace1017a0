/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontend

SECURITY NOTE:
  No authentication middleware. Auth is an external collaborator; all
  endpoints here are public.

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/schedule", h.GetWeeklySchedule)
			r.Post("/{id}/schedule/generate", h.GenerateWeeklySchedule)
			r.Get("/{id}/summary", h.GetEmployeeSummary)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.StartSession)
			r.Post("/{id}/end", h.EndSession)
		})

		r.Route("/companies", func(r chi.Router) {
			r.Post("/{id}/issue", h.IssueWeek)
			r.Get("/{id}/summary", h.CompanySummary)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/tick", h.DailyTick)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
