package token

import (
	"errors"
	"testing"

	"sso-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookieSecret = "this-is-a-valid-cookie-secret-that-is-at-least-32-chars"

func TestHMACCookieSigner_RoundTrip(t *testing.T) {
	signer := NewHMACCookieSigner(testCookieSecret)

	signed := signer.Sign("session-123")
	assert.NotEqual(t, "session-123", signed)

	value, err := signer.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "session-123", value)
}

func TestHMACCookieSigner_Deterministic(t *testing.T) {
	signer := NewHMACCookieSigner(testCookieSecret)
	assert.Equal(t, signer.Sign("session-123"), signer.Sign("session-123"))
}

func TestHMACCookieSigner_Tampered(t *testing.T) {
	signer := NewHMACCookieSigner(testCookieSecret)
	signed := signer.Sign("session-123")

	tests := []struct {
		name  string
		input string
	}{
		{"swapped value", "session-456" + signed[len("session-123"):]},
		{"no signature", "session-123"},
		{"empty signature", "session-123."},
		{"empty value", "." + signed[len("session-123")+1:]},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := signer.Verify(tt.input)
			assert.Empty(t, value)
			assert.True(t, errors.Is(err, domain.ErrInvalidCookie))
		})
	}
}

func TestHMACCookieSigner_DifferentSecrets(t *testing.T) {
	a := NewHMACCookieSigner(testCookieSecret)
	b := NewHMACCookieSigner("another-cookie-secret-that-is-also-32-chars-long")

	_, err := b.Verify(a.Sign("session-123"))
	assert.True(t, errors.Is(err, domain.ErrInvalidCookie))
}
