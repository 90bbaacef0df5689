package usecase

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"sso-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartLogin_NewFlow(t *testing.T) {
	sessions := newMockSessionStore()
	flows := newMockFlowStore()
	uc := NewStartLogin(sessions, flows, newTestEngine(&mockVerifier{endpoint: testEndpoint}), slog.Default())

	result, err := uc.Execute(context.Background(), StartLoginInput{Origin: testOrigin, NextURL: "/maas"})
	require.NoError(t, err)

	assert.False(t, result.Authenticated)
	assert.True(t, strings.HasPrefix(result.RedirectURL, testEndpoint+"?"))
	require.Contains(t, flows.flows, result.BrowserKey)
	assert.Equal(t, "/maas", flows.flows[result.BrowserKey].NextURL)
}

func TestStartLogin_ShortCircuitsValidSession(t *testing.T) {
	sessions := newMockSessionStore()
	flows := newMockFlowStore()
	session, err := sessions.Create(context.Background(), domain.Identity{IdentityURL: testIdentity})
	require.NoError(t, err)
	verifier := &mockVerifier{endpointErr: domain.ErrDiscoveryFailed}
	uc := NewStartLogin(sessions, flows, newTestEngine(verifier), slog.Default())

	result, err := uc.Execute(context.Background(), StartLoginInput{
		SessionID: session.ID,
		Origin:    testOrigin,
		NextURL:   "//evil.example/",
	})
	require.NoError(t, err)

	assert.True(t, result.Authenticated)
	assert.Equal(t, "/", result.RedirectURL)
	assert.Empty(t, result.BrowserKey)
	assert.Empty(t, flows.flows)
}

func TestStartLogin_StaleCookieStartsFreshFlow(t *testing.T) {
	sessions := newMockSessionStore()
	flows := newMockFlowStore()
	require.NoError(t, flows.Save(context.Background(), &domain.PendingFlow{Key: "abandoned", ExpiresAt: time.Now().Add(time.Minute)}))
	uc := NewStartLogin(sessions, flows, newTestEngine(&mockVerifier{endpoint: testEndpoint}), slog.Default())

	result, err := uc.Execute(context.Background(), StartLoginInput{SessionID: "abandoned", Origin: testOrigin})
	require.NoError(t, err)

	assert.False(t, result.Authenticated)
	assert.NotEqual(t, "abandoned", result.BrowserKey)
	assert.NotContains(t, flows.flows, "abandoned")
	assert.Contains(t, flows.deleted, "abandoned")
}

func TestStartLogin_StoreErrors(t *testing.T) {
	t.Run("session store", func(t *testing.T) {
		sessions := newMockSessionStore()
		sessions.getErr = domain.ErrStoreUnavailable
		uc := NewStartLogin(sessions, newMockFlowStore(), newTestEngine(&mockVerifier{endpoint: testEndpoint}), slog.Default())

		result, err := uc.Execute(context.Background(), StartLoginInput{SessionID: "some-id", Origin: testOrigin})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})

	t.Run("flow store", func(t *testing.T) {
		flows := newMockFlowStore()
		flows.saveErr = domain.ErrStoreUnavailable
		uc := NewStartLogin(newMockSessionStore(), flows, newTestEngine(&mockVerifier{endpoint: testEndpoint}), slog.Default())

		result, err := uc.Execute(context.Background(), StartLoginInput{Origin: testOrigin})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})

	t.Run("discovery", func(t *testing.T) {
		uc := NewStartLogin(newMockSessionStore(), newMockFlowStore(), newTestEngine(&mockVerifier{endpointErr: domain.ErrDiscoveryFailed}), slog.Default())

		_, err := uc.Execute(context.Background(), StartLoginInput{Origin: testOrigin})
		assert.ErrorIs(t, err, domain.ErrDiscoveryFailed)
	})
}
