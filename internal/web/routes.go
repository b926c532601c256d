package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
	"github.com/kozaktomas/face-attendance/internal/web/static"
)

func (s *Server) setupRoutes() error {
	pages, err := static.Pages()
	if err != nil {
		return fmt.Errorf("parsing page templates: %w", err)
	}

	formsHandler := handlers.NewFormsHandler(s.config, pages, s.logger)
	configHandler := handlers.NewConfigHandler(s.config)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(s.config.Web.AllowedOrigins))
		r.Get("/health", handlers.HealthCheck)
		r.Get("/config", configHandler.Get)
	})

	// Static assets
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(static.GetFileSystem())))

	// Form pages, each browser gets its own pair of forms
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.WithSession(s.sessionManager))

		r.Get("/", formsHandler.Index)
		r.Get("/detect", formsHandler.DetectPage)
		r.Post("/detect", formsHandler.Detect)
		r.Post("/detect/clear", formsHandler.ClearDetect)
		r.Get("/register", formsHandler.RegisterPage)
		r.Post("/register", formsHandler.Register)
		r.Post("/register/clear", formsHandler.ClearRegister)
	})

	return nil
}
