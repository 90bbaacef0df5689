package handler

import (
	"net/http"
	"strings"

	"sso-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// LoginHandler handles /login.
type LoginHandler struct {
	uc        *usecase.StartLogin
	cookie    *SessionCookie
	publicURL string
}

// NewLoginHandler creates a new login handler. publicURL overrides the origin
// derived from the request when set.
func NewLoginHandler(uc *usecase.StartLogin, cookie *SessionCookie, publicURL string) *LoginHandler {
	return &LoginHandler{uc: uc, cookie: cookie, publicURL: publicURL}
}

// Handle redirects to the identity provider, or straight to next_url when the
// browser is already signed in.
func (h *LoginHandler) Handle(c echo.Context) error {
	result, err := h.uc.Execute(c.Request().Context(), usecase.StartLoginInput{
		SessionID: h.cookie.Read(c),
		Origin:    requestOrigin(c, h.publicURL),
		NextURL:   c.QueryParam("next_url"),
	})
	if err != nil {
		return mapDomainError(err)
	}

	if result.BrowserKey != "" {
		h.cookie.WriteFlow(c, result.BrowserKey)
	}
	return c.Redirect(http.StatusFound, result.RedirectURL)
}

// requestOrigin is the scheme and host the browser used to reach us.
func requestOrigin(c echo.Context, publicURL string) string {
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/")
	}
	return c.Scheme() + "://" + c.Request().Host
}
