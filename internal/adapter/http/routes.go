package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the REST routes on the given chi router. The api
// middlewares wrap only the /api/v1 group, typically the rate limiter.
func MountRoutes(r chi.Router, h *Handlers, api ...func(http.Handler) http.Handler) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(api...)

		r.Get("/", h.APIVersion)

		// Matches
		r.Get("/matches", h.ListMatches)
		r.Post("/matches", h.CreateMatch)
		r.Get("/matches/{id}", h.GetMatch)

		// Commentary (nested under matches)
		r.Get("/matches/{id}/commentary", h.ListCommentary)
		r.Post("/matches/{id}/commentary", h.CreateCommentary)

		// Live feed
		r.Get("/live/stats", h.LiveStats)
	})
}
