package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/leadtrackapp/leadtrack-server/internal/errors"
	"github.com/leadtrackapp/leadtrack-server/internal/ratelimit"
)

func TestLoginAndVerifySession(t *testing.T) {
	s := newTestStore(t)
	svc := newTestAuthService(t, s)
	createTestUser(t, s, "carlos", "carlos@example.com", "correct-password")
	ctx := context.Background()

	user, session, err := svc.Login(ctx, "carlos", "correct-password", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "carlos", user.Username)
	assert.True(t, len(session.ID) > 5 && session.ID[:5] == "sess-")
	assert.True(t, session.ExpiresAt.After(time.Now().Add(719*time.Hour)))

	verified, err := svc.VerifySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	s := newTestStore(t)
	svc := newTestAuthService(t, s)
	createTestUser(t, s, "carlos", "", "correct-password")

	_, _, err := svc.Login(context.Background(), "carlos", "wrong", "10.0.0.1")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestLoginUnknownUser(t *testing.T) {
	s := newTestStore(t)
	svc := newTestAuthService(t, s)

	// Unknown users get the same error as wrong passwords.
	_, _, err := svc.Login(context.Background(), "nobody", "whatever", "10.0.0.1")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestLoginRateLimited(t *testing.T) {
	s := newTestStore(t)
	limiter := ratelimit.New(0.01, 2)
	svc := NewAuthService(s, limiter, time.Hour, testLogger())
	createTestUser(t, s, "carlos", "", "correct-password")
	ctx := context.Background()

	for range 2 {
		_, _, err := svc.Login(ctx, "carlos", "wrong", "10.0.0.1")
		assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
	}

	_, _, err := svc.Login(ctx, "carlos", "correct-password", "10.0.0.1")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrRateLimited))

	// A different IP has its own budget.
	_, _, err = svc.Login(ctx, "carlos", "correct-password", "10.0.0.2")
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	s := newTestStore(t)
	svc := newTestAuthService(t, s)
	createTestUser(t, s, "carlos", "", "correct-password")
	ctx := context.Background()

	_, session, err := svc.Login(ctx, "carlos", "correct-password", "10.0.0.1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.ID))

	_, err = svc.VerifySession(ctx, session.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))

	// Logging out an unknown session is not an error.
	assert.NoError(t, svc.Logout(ctx, "sess-gone"))
}

func TestVerifyExpiredSession(t *testing.T) {
	s := newTestStore(t)
	svc := NewAuthService(s, ratelimit.New(100, 100), -time.Hour, testLogger())
	createTestUser(t, s, "carlos", "", "correct-password")
	ctx := context.Background()

	_, session, err := svc.Login(ctx, "carlos", "correct-password", "10.0.0.1")
	require.NoError(t, err)

	_, err = svc.VerifySession(ctx, session.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))
}

func TestCreateUserDuplicate(t *testing.T) {
	s := newTestStore(t)
	svc := newTestAuthService(t, s)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "carlos", "c@example.com", "secret-password")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "carlos", "", "other-password")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
}

func TestCleanupExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	expired := NewAuthService(s, ratelimit.New(100, 100), -time.Hour, testLogger())
	createTestUser(t, s, "carlos", "", "correct-password")
	ctx := context.Background()

	_, _, err := expired.Login(ctx, "carlos", "correct-password", "10.0.0.1")
	require.NoError(t, err)

	n, err := expired.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
