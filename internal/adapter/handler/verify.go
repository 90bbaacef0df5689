package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"sso-hub/internal/domain"
	"sso-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// Headers set on an authorized verify response for the proxy to forward.
const (
	HeaderUserEmail     = "X-User-Email"
	HeaderUserIdentity  = "X-User-Identity"
	HeaderUserTeams     = "X-User-Teams"
	HeaderAuthenticated = "X-Authenticated"
	HeaderBackendToken  = "X-Backend-Token"
)

// VerifyHandler handles /verify-and-inject for nginx auth_request.
type VerifyHandler struct {
	uc     *usecase.AuthorizeRequest
	cookie *SessionCookie
	logger *slog.Logger
}

// NewVerifyHandler creates a new verify handler.
func NewVerifyHandler(uc *usecase.AuthorizeRequest, cookie *SessionCookie, l *slog.Logger) *VerifyHandler {
	return &VerifyHandler{uc: uc, cookie: cookie, logger: l}
}

// Handle answers 200 with identity headers or 401. It never redirects.
func (h *VerifyHandler) Handle(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.uc.Execute(ctx, h.cookie.Read(c))
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) && !errors.Is(err, domain.ErrSessionExpired) {
			h.logger.ErrorContext(ctx, "session lookup failed", "error", err)
		}
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	identity := result.Session.Identity
	header := c.Response().Header()
	header.Set(HeaderUserEmail, identity.Email)
	header.Set(HeaderUserIdentity, identity.IdentityURL)
	header.Set(HeaderUserTeams, strings.Join(identity.Teams, ","))
	header.Set(HeaderAuthenticated, "true")
	if result.BackendToken != "" {
		header.Set(HeaderBackendToken, result.BackendToken)
	}

	return c.JSON(http.StatusOK, map[string]bool{"authenticated": true})
}
