package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"sso-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTokenIssuer implements domain.TokenIssuer for testing.
type mockTokenIssuer struct {
	token string
	err   error
}

func (m *mockTokenIssuer) IssueBackendToken(_ *domain.Session) (string, error) {
	return m.token, m.err
}

func TestValidateSession(t *testing.T) {
	sessions := newMockSessionStore()
	session, err := sessions.Create(context.Background(), domain.Identity{IdentityURL: testIdentity})
	require.NoError(t, err)
	uc := NewValidateSession(sessions, slog.Default())

	got, err := uc.Execute(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, testIdentity, got.Identity.IdentityURL)

	_, err = uc.Execute(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = uc.Execute(context.Background(), "unknown")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestValidateSession_LogsExpiry(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sessions := newMockSessionStore()
	sessions.getErr = domain.ErrSessionExpired
	uc := NewValidateSession(sessions, logger)

	_, err := uc.Execute(context.Background(), "stale")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Contains(t, buf.String(), "session expired")
	assert.NotContains(t, buf.String(), "stale")
}

func TestAuthorizeRequest_WithBackendToken(t *testing.T) {
	sessions := newMockSessionStore()
	session, err := sessions.Create(context.Background(), domain.Identity{IdentityURL: testIdentity, Teams: []string{testTeam}})
	require.NoError(t, err)
	uc := NewAuthorizeRequest(NewValidateSession(sessions, slog.Default()), &mockTokenIssuer{token: "jwt-token-123"}, slog.Default())

	result, err := uc.Execute(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, result.Session.ID)
	assert.Equal(t, "jwt-token-123", result.BackendToken)
}

func TestAuthorizeRequest_WithoutIssuer(t *testing.T) {
	sessions := newMockSessionStore()
	session, err := sessions.Create(context.Background(), domain.Identity{IdentityURL: testIdentity})
	require.NoError(t, err)
	uc := NewAuthorizeRequest(NewValidateSession(sessions, slog.Default()), nil, slog.Default())

	result, err := uc.Execute(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Empty(t, result.BackendToken)
}

func TestAuthorizeRequest_TokenFailureStillAuthorizes(t *testing.T) {
	sessions := newMockSessionStore()
	session, err := sessions.Create(context.Background(), domain.Identity{IdentityURL: testIdentity})
	require.NoError(t, err)
	issuer := &mockTokenIssuer{err: domain.ErrTokenGeneration}
	uc := NewAuthorizeRequest(NewValidateSession(sessions, slog.Default()), issuer, slog.Default())

	result, err := uc.Execute(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Empty(t, result.BackendToken)
}

func TestAuthorizeRequest_Unauthenticated(t *testing.T) {
	sessions := newMockSessionStore()
	uc := NewAuthorizeRequest(NewValidateSession(sessions, slog.Default()), &mockTokenIssuer{token: "unused"}, slog.Default())

	result, err := uc.Execute(context.Background(), "deleted-session")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestLogout(t *testing.T) {
	sessions := newMockSessionStore()
	flows := newMockFlowStore()
	session, err := sessions.Create(context.Background(), domain.Identity{IdentityURL: testIdentity})
	require.NoError(t, err)
	uc := NewLogout(sessions, flows, slog.Default())

	require.NoError(t, uc.Execute(context.Background(), session.ID))
	assert.Empty(t, sessions.sessions)
	assert.Contains(t, flows.deleted, session.ID)

	// Idempotent.
	assert.NoError(t, uc.Execute(context.Background(), session.ID))
}

func TestLogout_EmptyKey(t *testing.T) {
	sessions := newMockSessionStore()
	uc := NewLogout(sessions, newMockFlowStore(), slog.Default())

	assert.NoError(t, uc.Execute(context.Background(), ""))
	assert.Empty(t, sessions.deleted)
}

func TestLogout_StoreError(t *testing.T) {
	sessions := newMockSessionStore()
	sessions.deleteErr = errors.New("connection refused")
	uc := NewLogout(sessions, newMockFlowStore(), slog.Default())

	assert.Error(t, uc.Execute(context.Background(), "some-id"))
}
