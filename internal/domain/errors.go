package domain

import "errors"

// Authentication errors.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrFlowNotFound       = errors.New("login flow not found")
	ErrMalformedCallback  = errors.New("malformed callback")
	ErrVerificationFailed = errors.New("assertion verification failed")
	ErrPolicyDenied       = errors.New("required team membership missing")
)

// Token errors.
var (
	ErrTokenGeneration   = errors.New("token generation failed")
	ErrInvalidCookie     = errors.New("invalid cookie signature")
	ErrBackendSecretWeak = errors.New("backend token secret too weak")
)

// External service errors.
var (
	ErrDiscoveryFailed  = errors.New("identity provider discovery failed")
	ErrStoreUnavailable = errors.New("session store unavailable")
)
