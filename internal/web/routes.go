package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/glowteam/skinscan/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	scanHandler := handlers.NewScanHandler(s.analyzer)
	configHandler := handlers.NewConfigHandler(s.config)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", scanHandler.Analyze)
		r.Post("/validate", scanHandler.Validate)
		r.Get("/subjects/{subject}/history", scanHandler.History)
		r.Get("/config", configHandler.Get)
	})
}
