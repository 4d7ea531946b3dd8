// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the HTTP routes and middleware chain of the
// LexDesk API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"lexdesk/internal/handlers"
	"lexdesk/internal/middleware"
)

// New creates the configured Chi router. limiter guards the endpoints
// that create records or call out to delivery endpoints; nil disables it.
func New(api *handlers.API, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.Identity)

	r.Get("/health", api.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/system-variables", api.SystemVariables)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", api.TemplatesList)
			r.Post("/", api.TemplateCreate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", api.TemplateGet)
				r.Put("/", api.TemplateUpdate)
				r.Delete("/", api.TemplateDelete)

				r.Post("/fields", api.FieldCreate)
				r.Put("/fields/{fieldID}", api.FieldUpdate)
				r.Delete("/fields/{fieldID}", api.FieldDelete)

				r.Post("/preview", api.TemplatePreview)
				r.With(limit(limiter)...).Post("/execute", api.TemplateExecute)

				r.Get("/executions", api.ExecutionsList)
				r.Get("/stats", api.TemplateStats)
			})
		})

		r.Route("/executions/{id}", func(r chi.Router) {
			r.Get("/", api.ExecutionGet)
			r.Get("/document", api.ExecutionDocument)
			r.With(limit(limiter)...).Post("/retry", api.ExecutionRetry)
		})

		r.Get("/clients", api.ClientsList)
		r.Post("/clients", api.ClientCreate)
		r.Get("/processes", api.ProcessesList)
		r.Post("/processes", api.ProcessCreate)
	})

	return r
}

// limit returns the rate limiting middleware, or none when rl is nil.
func limit(rl *middleware.RateLimiter) []func(http.Handler) http.Handler {
	if rl == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{rl.Middleware}
}
