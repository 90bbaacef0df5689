package handler

import (
	"errors"
	"net/http"

	"sso-hub/internal/domain"

	"github.com/labstack/echo/v4"
)

// mapDomainError converts a domain error into an appropriate echo.HTTPError.
// Messages stay generic; details are logged where the error originates.
func mapDomainError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionExpired):
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")

	case errors.Is(err, domain.ErrMalformedCallback),
		errors.Is(err, domain.ErrFlowNotFound):
		return echo.NewHTTPError(http.StatusBadRequest, "Authentication failed")

	case errors.Is(err, domain.ErrVerificationFailed):
		return echo.NewHTTPError(http.StatusForbidden, "Authentication failed")

	case errors.Is(err, domain.ErrPolicyDenied):
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")

	case errors.Is(err, domain.ErrDiscoveryFailed):
		return echo.NewHTTPError(http.StatusBadGateway, "identity provider unavailable")

	case errors.Is(err, domain.ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")

	case errors.Is(err, domain.ErrTokenGeneration),
		errors.Is(err, domain.ErrBackendSecretWeak):
		return echo.NewHTTPError(http.StatusInternalServerError, "token generation error")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
