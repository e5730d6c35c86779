package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facerec/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	facesHandler := handlers.NewFacesHandler(s.recognizer, s.config.Recognition.MaxImageSize)

	s.router.Get("/", handlers.Home)
	s.router.Get("/api/v1/health", facesHandler.Health)

	// Route kept at the root for existing clients.
	s.router.Post("/recognize_face", facesHandler.Recognize)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/recognize", facesHandler.Recognize)
		r.Get("/labels", facesHandler.Labels)
	})
}
