package usecase

import (
	"context"
	"log/slog"

	"sso-hub/internal/domain"
	"sso-hub/internal/infrastructure/metrics"
)

// AuthorizeResult is what the proxy forwards to the protected backend.
type AuthorizeResult struct {
	Session *domain.Session
	// BackendToken is empty when no issuer is configured or issuing failed.
	BackendToken string
}

// AuthorizeRequest answers the reverse proxy's per-request trust check.
type AuthorizeRequest struct {
	validate *ValidateSession
	token    domain.TokenIssuer
	logger   *slog.Logger
}

// NewAuthorizeRequest creates a new AuthorizeRequest usecase. t may be nil.
func NewAuthorizeRequest(v *ValidateSession, t domain.TokenIssuer, l *slog.Logger) *AuthorizeRequest {
	return &AuthorizeRequest{validate: v, token: t, logger: l}
}

// Execute validates the session and, when configured, mints a backend token.
func (uc *AuthorizeRequest) Execute(ctx context.Context, id string) (*AuthorizeResult, error) {
	session, err := uc.validate.Execute(ctx, id)
	if err != nil {
		metrics.RecordVerify(metrics.ResultRejected)
		return nil, err
	}

	result := &AuthorizeResult{Session: session}
	if uc.token != nil {
		backendToken, err := uc.token.IssueBackendToken(session)
		if err != nil {
			uc.logger.ErrorContext(ctx, "failed to issue backend token", "error", err)
		} else {
			result.BackendToken = backendToken
		}
	}

	metrics.RecordVerify(metrics.ResultAllowed)
	return result, nil
}
