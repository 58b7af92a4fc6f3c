package api

import (
	"encoding/json/v2"
	"net/http"
	"time"

	"github.com/leadtrackapp/leadtrack-server/internal/http/response"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin verifies credentials and issues the session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body", s.logger.Logger)
		return
	}
	if req.Username == "" || req.Password == "" {
		response.BadRequest(w, "username and password are required", s.logger.Logger)
		return
	}

	user, session, err := s.authService.Login(r.Context(), req.Username, req.Password, r.RemoteAddr)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	s.setSessionCookie(w, session.ID, session.ExpiresAt)
	response.Success(w, map[string]any{
		"user": user,
		"next": r.URL.Query().Get("next"),
	}, s.logger.Logger)
}

// handleLogout ends the session and clears the cookie.
// Safe to call without a valid session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := s.authService.Logout(r.Context(), cookie.Value); err != nil {
			response.HandleError(w, err, s.logger.Logger)
			return
		}
	}

	s.clearSessionCookie(w)
	response.Success(w, nil, s.logger.Logger)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sessionID string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
