package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the public and authenticated API routes. requireAuth
// guards every route that acts on behalf of a candidate.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.Ping)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/interview/start", h.StartInterview)
			r.Post("/interview/respond", h.RespondInterview)
			r.Get("/interview/analyze", h.AnalyzeInterview)
			r.Get("/dashboard", h.Dashboard)
			r.Get("/user/stats", h.UserStats)

			r.Post("/career-advice", h.CareerAdvice)
			r.Post("/cv-rating", h.CVRating)
			r.Post("/cv-upload", h.CVUpload)
			r.Post("/strength-analysis", h.StrengthAnalysis)
		})
	})
}
