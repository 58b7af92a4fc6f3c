package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/leadtrackapp/leadtrack-server/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	contextKeyUser      contextKey = "user"
	contextKeySessionID contextKey = "session_id"
)

// requireLogin validates the session cookie and attaches the user to the
// request context. Anonymous requests are redirected to the login screen
// with the original URL in ?next=, browser-style.
func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			s.redirectToLogin(w, r)
			return
		}

		user, err := s.authService.VerifySession(r.Context(), cookie.Value)
		if err != nil {
			s.clearSessionCookie(w)
			s.redirectToLogin(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUser, user)
		ctx = context.WithValue(ctx, contextKeySessionID, cookie.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
}

// getUser extracts the authenticated user from request context.
// Returns nil if not authenticated.
func getUser(ctx context.Context) *domain.User {
	if user, ok := ctx.Value(contextKeyUser).(*domain.User); ok {
		return user
	}
	return nil
}

// getSessionID extracts the session ID from request context.
// Returns empty string if not available.
func getSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(contextKeySessionID).(string); ok {
		return sessionID
	}
	return ""
}
