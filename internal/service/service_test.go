package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leadtrackapp/leadtrack-server/internal/auth"
	"github.com/leadtrackapp/leadtrack-server/internal/domain"
	"github.com/leadtrackapp/leadtrack-server/internal/id"
	"github.com/leadtrackapp/leadtrack-server/internal/ratelimit"
	"github.com/leadtrackapp/leadtrack-server/internal/store"
	"github.com/leadtrackapp/leadtrack-server/internal/validation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(store.DriverSQLite, dbPath, testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// recordingSender captures sent mail for assertions.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (r *recordingSender) Send(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (r *recordingSender) all() []sentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMail(nil), r.sent...)
}

func newTestLeadService(t *testing.T) (*LeadService, *store.Store, *recordingSender) {
	t.Helper()
	s := newTestStore(t)
	sender := &recordingSender{}
	svc := NewLeadService(s, sender, validation.New(), testLogger())
	return svc, s, sender
}

func newTestAuthService(t *testing.T, s *store.Store) *AuthService {
	t.Helper()
	limiter := ratelimit.New(100, 100)
	return NewAuthService(s, limiter, 720*time.Hour, testLogger())
}

func createTestUser(t *testing.T, s *store.Store, username, email, password string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID:           id.MustGenerate("user"),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}
