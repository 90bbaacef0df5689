package usecase

import (
	"context"
	"errors"
	"log/slog"

	"sso-hub/internal/domain"
)

// ValidateSession is a read-only session lookup.
type ValidateSession struct {
	sessions domain.SessionStore
	logger   *slog.Logger
}

// NewValidateSession creates a new ValidateSession usecase.
func NewValidateSession(s domain.SessionStore, l *slog.Logger) *ValidateSession {
	return &ValidateSession{sessions: s, logger: l}
}

// Execute returns the live session for id.
func (uc *ValidateSession) Execute(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrSessionNotFound
	}
	session, err := uc.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			uc.logger.DebugContext(ctx, "session expired")
		}
		return nil, err
	}
	return session, nil
}
