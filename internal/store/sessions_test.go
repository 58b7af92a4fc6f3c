package store

import (
	"context"
	"testing"
	"time"

	"github.com/leadtrackapp/leadtrack-server/internal/domain"
)

func TestCreateAndGetSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "carlos")
	now := time.Now().UTC()

	sess := &domain.Session{
		ID:        "sess-abc123",
		UserID:    u.ID,
		ExpiresAt: now.Add(720 * time.Hour),
		CreatedAt: now,
	}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := s.GetSession(ctx, "sess-abc123")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UserID != u.ID {
		t.Errorf("unexpected user: %s", got.UserID)
	}
	if got.IsExpired() {
		t.Error("fresh session should not be expired")
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "carlos")
	now := time.Now().UTC()

	sess := &domain.Session{ID: "sess-1", UserID: u.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteSession(ctx, "sess-1"); err != ErrNotFound {
		t.Errorf("double delete should be ErrNotFound, got %v", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "carlos")
	now := time.Now().UTC()

	fresh := &domain.Session{ID: "sess-fresh", UserID: u.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	stale := &domain.Session{ID: "sess-stale", UserID: u.ID, ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-2 * time.Hour)}
	for _, sess := range []*domain.Session{fresh, stale} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}

	if _, err := s.GetSession(ctx, "sess-fresh"); err != nil {
		t.Errorf("fresh session should remain: %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-stale"); err != ErrNotFound {
		t.Errorf("stale session should be gone, got %v", err)
	}
}

func TestDeleteSessionsByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "carlos")
	other := newTestUser(t, s, "ana")
	now := time.Now().UTC()

	for _, sess := range []*domain.Session{
		{ID: "sess-c1", UserID: u.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now},
		{ID: "sess-c2", UserID: u.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now},
		{ID: "sess-a1", UserID: other.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now},
	} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.DeleteSessionsByUser(ctx, u.ID); err != nil {
		t.Fatalf("delete by user: %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-c1"); err != ErrNotFound {
		t.Error("carlos sessions should be gone")
	}
	if _, err := s.GetSession(ctx, "sess-a1"); err != nil {
		t.Errorf("ana session should remain: %v", err)
	}
}
