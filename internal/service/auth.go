// Package service implements the application logic between the HTTP layer and the store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leadtrackapp/leadtrack-server/internal/auth"
	"github.com/leadtrackapp/leadtrack-server/internal/domain"
	domainerrors "github.com/leadtrackapp/leadtrack-server/internal/errors"
	"github.com/leadtrackapp/leadtrack-server/internal/id"
	"github.com/leadtrackapp/leadtrack-server/internal/ratelimit"
	"github.com/leadtrackapp/leadtrack-server/internal/store"
)

// AuthService handles login, logout, and session verification.
type AuthService struct {
	store           *store.Store
	loginLimiter    *ratelimit.KeyedRateLimiter
	sessionDuration time.Duration
	logger          *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(s *store.Store, limiter *ratelimit.KeyedRateLimiter, sessionDuration time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:           s,
		loginLimiter:    limiter,
		sessionDuration: sessionDuration,
		logger:          logger,
	}
}

// Login verifies credentials and opens a new session.
// Attempts are rate limited per username and client IP together, so a
// flood against one account from one address cannot lock everyone out.
func (s *AuthService) Login(ctx context.Context, username, password, clientIP string) (*domain.User, *domain.Session, error) {
	if !s.loginLimiter.Allow(username + "|" + clientIP) {
		s.logger.Warn("login rate limited", "username", username, "ip", clientIP)
		return nil, nil, domainerrors.RateLimited("too many login attempts, try again shortly")
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, nil, domainerrors.InvalidCredentials("invalid username or password")
		}
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "verify password")
	}
	if !ok {
		s.logger.Info("login failed", "username", username)
		return nil, nil, domainerrors.InvalidCredentials("invalid username or password")
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        "sess-" + uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionDuration),
		CreatedAt: now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create session")
	}

	s.logger.Info("login succeeded", "username", username, "session_id", session.ID)
	return user, session, nil
}

// Logout deletes the session. Unknown sessions are not an error; the
// caller's cookie is cleared either way.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	err := s.store.DeleteSession(ctx, sessionID)
	if err != nil && err != store.ErrNotFound {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "delete session")
	}
	return nil
}

// VerifySession resolves a session ID to its user.
// Expired sessions are deleted on sight.
func (s *AuthService) VerifySession(ctx context.Context, sessionID string) (*domain.User, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, domainerrors.Unauthorized("session not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up session")
	}

	if session.IsExpired() {
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, domainerrors.Unauthorized("session expired")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, domainerrors.Unauthorized("user no longer exists")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}

	return user, nil
}

// CreateUser registers a new account with a hashed password.
func (s *AuthService) CreateUser(ctx context.Context, username, email, password string) (*domain.User, error) {
	if username == "" {
		return nil, domainerrors.Validation("username is required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, domainerrors.Validation(fmt.Sprintf("invalid password: %v", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           id.MustGenerate("user"),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if err == store.ErrAlreadyExists {
			return nil, domainerrors.AlreadyExists(fmt.Sprintf("username %q is taken", username))
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create user")
	}

	s.logger.Info("user created", "username", username, "user_id", user.ID)
	return user, nil
}

// CleanupExpiredSessions removes expired sessions and returns how many went.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "delete expired sessions")
	}
	if n > 0 {
		s.logger.Debug("expired sessions removed", "count", n)
	}
	return n, nil
}
