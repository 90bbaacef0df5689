package handler

import (
	"net/http"

	"sso-hub/internal/domain"
	"sso-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// UserHandler handles /user.
type UserHandler struct {
	uc     *usecase.ValidateSession
	cookie *SessionCookie
}

// NewUserHandler creates a new user handler.
func NewUserHandler(uc *usecase.ValidateSession, cookie *SessionCookie) *UserHandler {
	return &UserHandler{uc: uc, cookie: cookie}
}

type userResponse struct {
	User domain.Identity `json:"user"`
}

// Handle returns the identity of the current session.
func (h *UserHandler) Handle(c echo.Context) error {
	session, err := h.uc.Execute(c.Request().Context(), h.cookie.Read(c))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, userResponse{User: session.Identity})
}
