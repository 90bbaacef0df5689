package handler

import (
	"net/http"

	"sso-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// CallbackHandler handles the identity provider's return to /callback.
type CallbackHandler struct {
	uc     *usecase.CompleteLogin
	cookie *SessionCookie
}

// NewCallbackHandler creates a new callback handler.
func NewCallbackHandler(uc *usecase.CompleteLogin, cookie *SessionCookie) *CallbackHandler {
	return &CallbackHandler{uc: uc, cookie: cookie}
}

// Handle completes the login and sets the session cookie.
func (h *CallbackHandler) Handle(c echo.Context) error {
	result, err := h.uc.Execute(c.Request().Context(), usecase.CompleteLoginInput{
		BrowserKey: h.cookie.Read(c),
		Params:     c.QueryParams(),
	})
	if err != nil {
		// The flow key has been consumed; drop it from the browser as well.
		h.cookie.Clear(c)
		return mapDomainError(err)
	}

	h.cookie.WriteSession(c, result.Session.ID)
	return c.Redirect(http.StatusFound, result.NextURL)
}
