// Package api provides the HTTP server and handlers for the LeadTrack application.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/leadtrackapp/leadtrack-server/internal/http/response"
	"github.com/leadtrackapp/leadtrack-server/internal/logger"
	"github.com/leadtrackapp/leadtrack-server/internal/service"
)

// sessionCookieName is the opaque session cookie issued at login.
const sessionCookieName = "leadtrack_session"

// Server holds dependencies for HTTP handlers.
type Server struct {
	leadService   *service.LeadService
	authService   *service.AuthService
	router        *chi.Mux
	logger        *logger.Logger
	secureCookies bool
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(leadService *service.LeadService, authService *service.AuthService, log *logger.Logger, secureCookies bool) *Server {
	s := &Server{
		leadService:   leadService,
		authService:   authService,
		router:        chi.NewRouter(),
		logger:        log,
		secureCookies: secureCookies,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
// The URL scheme mirrors the app's screens: the lead list at the root,
// /novo/ to create, /{id}/editar/ and /{id}/remover/ per lead, and
// /importar/ for CSV upload. Trailing slashes are significant.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Post("/login", s.handleLogin)
	s.router.Post("/logout", s.handleLogout)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireLogin)

		r.Get("/", s.handleListLeads)
		r.Get("/novo/", s.handleNewLeadForm)
		r.Post("/novo/", s.handleCreateLead)
		r.Get("/{id}/editar/", s.handleGetLead)
		r.Post("/{id}/editar/", s.handleUpdateLead)
		r.Post("/{id}/remover/", s.handleDeleteLead)
		r.Get("/importar/", s.handleImportForm)
		r.Post("/importar/", s.handleImportCSV)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger.Logger)
}
