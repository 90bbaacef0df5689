package usecase

import (
	"context"
	"errors"
	"log/slog"

	"sso-hub/internal/domain"
)

// Logout destroys whatever the browser cookie refers to.
type Logout struct {
	sessions domain.SessionStore
	flows    domain.FlowStore
	logger   *slog.Logger
}

// NewLogout creates a new Logout usecase.
func NewLogout(s domain.SessionStore, f domain.FlowStore, l *slog.Logger) *Logout {
	return &Logout{sessions: s, flows: f, logger: l}
}

// Execute deletes the session and any pending flow stored under key.
func (uc *Logout) Execute(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := errors.Join(
		uc.sessions.Delete(ctx, key),
		uc.flows.Delete(ctx, key),
	)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to clear session state", "error", err)
	}
	return err
}
