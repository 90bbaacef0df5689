package handler

import (
	"net/http"

	"sso-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// LogoutHandler handles /logout.
type LogoutHandler struct {
	uc     *usecase.Logout
	cookie *SessionCookie
}

// NewLogoutHandler creates a new logout handler.
func NewLogoutHandler(uc *usecase.Logout, cookie *SessionCookie) *LogoutHandler {
	return &LogoutHandler{uc: uc, cookie: cookie}
}

// Handle destroys the session and always redirects to "/". A store failure
// is logged by the usecase; the cookie is cleared regardless.
func (h *LogoutHandler) Handle(c echo.Context) error {
	_ = h.uc.Execute(c.Request().Context(), h.cookie.Read(c))
	h.cookie.Clear(c)
	return c.Redirect(http.StatusFound, "/")
}
