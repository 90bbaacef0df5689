package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"sso-hub/internal/domain"
	"sso-hub/internal/infrastructure/metrics"
)

// CompleteLoginInput is the browser state seen by /callback.
type CompleteLoginInput struct {
	BrowserKey string
	Params     url.Values
}

// CompleteLoginResult carries the new session and where to send the browser.
type CompleteLoginResult struct {
	Session *domain.Session
	NextURL string
}

// CompleteLogin consumes a pending flow, verifies the callback and creates
// the session when the identity passes the team policy.
type CompleteLogin struct {
	sessions domain.SessionStore
	flows    domain.FlowStore
	engine   *ProtocolEngine
	policy   domain.TeamPolicy
	logger   *slog.Logger
}

// NewCompleteLogin creates a new CompleteLogin usecase.
func NewCompleteLogin(s domain.SessionStore, f domain.FlowStore, e *ProtocolEngine, p domain.TeamPolicy, l *slog.Logger) *CompleteLogin {
	return &CompleteLogin{sessions: s, flows: f, engine: e, policy: p, logger: l}
}

// Execute completes the login. Rejections are returned as domain errors; the
// pending flow is gone either way.
func (uc *CompleteLogin) Execute(ctx context.Context, in CompleteLoginInput) (*CompleteLoginResult, error) {
	if in.BrowserKey == "" {
		metrics.RecordCallback(string(domain.RejectMalformed))
		uc.logger.WarnContext(ctx, "callback without browser key")
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedCallback, domain.ErrFlowNotFound)
	}

	flow, err := uc.flows.Take(ctx, in.BrowserKey)
	if err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			metrics.RecordCallback(string(domain.RejectMalformed))
			uc.logger.WarnContext(ctx, "callback without pending flow")
			return nil, fmt.Errorf("%w: %w", domain.ErrMalformedCallback, err)
		}
		metrics.RecordCallback(metrics.OutcomeError)
		return nil, err
	}

	result := uc.engine.HandleCallback(ctx, in.Params, flow)
	if !result.OK() {
		metrics.RecordCallback(string(result.Reason))
		uc.logger.WarnContext(ctx, "login rejected", "reason", result.Reason, "detail", result.Detail)
		if result.Reason == domain.RejectVerificationFailed {
			return nil, domain.ErrVerificationFailed
		}
		return nil, domain.ErrMalformedCallback
	}

	identity := *result.Identity
	if uc.policy.Evaluate(identity) != domain.Allowed {
		metrics.RecordCallback(metrics.OutcomeDenied)
		uc.logger.WarnContext(ctx, "login denied by team policy",
			"identity", identity.IdentityURL,
			"required_team", uc.policy.RequiredTeam,
		)
		return nil, domain.ErrPolicyDenied
	}

	session, err := uc.sessions.Create(ctx, identity)
	if err != nil {
		metrics.RecordCallback(metrics.OutcomeError)
		uc.logger.ErrorContext(ctx, "failed to create session", "error", err)
		return nil, err
	}

	metrics.RecordCallback(metrics.OutcomeAuthenticated)
	uc.logger.InfoContext(ctx, "login completed", "identity", identity.IdentityURL)
	return &CompleteLoginResult{Session: session, NextURL: flow.NextURL}, nil
}
