package usecase

import (
	"context"
	"errors"
	"log/slog"

	"sso-hub/internal/domain"
	"sso-hub/internal/infrastructure/metrics"
)

// StartLoginInput is the browser state seen by /login.
type StartLoginInput struct {
	// SessionID is the verified cookie value, empty when absent.
	SessionID string
	Origin    string
	NextURL   string
}

// StartLoginResult tells the handler where to send the browser.
type StartLoginResult struct {
	RedirectURL string
	// BrowserKey is set only when a new flow was started.
	BrowserKey    string
	Authenticated bool
}

// StartLogin begins a login flow, or short-circuits when the browser already
// holds a valid session.
type StartLogin struct {
	sessions domain.SessionStore
	flows    domain.FlowStore
	engine   *ProtocolEngine
	logger   *slog.Logger
}

// NewStartLogin creates a new StartLogin usecase.
func NewStartLogin(s domain.SessionStore, f domain.FlowStore, e *ProtocolEngine, l *slog.Logger) *StartLogin {
	return &StartLogin{sessions: s, flows: f, engine: e, logger: l}
}

// Execute returns the redirect target for a /login request.
func (uc *StartLogin) Execute(ctx context.Context, in StartLoginInput) (*StartLoginResult, error) {
	if in.SessionID != "" {
		session, err := uc.sessions.Get(ctx, in.SessionID)
		switch {
		case err == nil:
			metrics.RecordLogin(metrics.OutcomeShortCircuit)
			uc.logger.DebugContext(ctx, "session already valid, skipping provider", "identity", session.Identity.IdentityURL)
			return &StartLoginResult{RedirectURL: SanitizeNextURL(in.NextURL), Authenticated: true}, nil
		case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionExpired):
			// The cookie may hold an abandoned flow key.
			if derr := uc.flows.Delete(ctx, in.SessionID); derr != nil {
				uc.logger.WarnContext(ctx, "failed to drop stale flow", "error", derr)
			}
		default:
			metrics.RecordLogin(metrics.OutcomeError)
			return nil, err
		}
	}

	redirectURL, flow, err := uc.engine.InitiateLogin(ctx, in.Origin, in.NextURL)
	if err != nil {
		metrics.RecordLogin(metrics.OutcomeError)
		uc.logger.ErrorContext(ctx, "failed to initiate login", "error", err)
		return nil, err
	}
	if err := uc.flows.Save(ctx, flow); err != nil {
		metrics.RecordLogin(metrics.OutcomeError)
		uc.logger.ErrorContext(ctx, "failed to save login flow", "error", err)
		return nil, err
	}

	metrics.RecordLogin(metrics.OutcomeRedirected)
	return &StartLoginResult{RedirectURL: redirectURL, BrowserKey: flow.Key}, nil
}
