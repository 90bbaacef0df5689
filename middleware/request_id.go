package middleware

import (
	"sso-hub/utils/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds ids accepted from the proxy.
const maxRequestIDLen = 128

// RequestID propagates the proxy's X-Request-ID, or a fresh UUID, into the
// request context for log correlation and echoes it on the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(requestIDHeader)
			if requestID == "" || len(requestID) > maxRequestIDLen {
				requestID = uuid.NewString()
			}

			c.Response().Header().Set(requestIDHeader, requestID)
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), requestID)))
			return next(c)
		}
	}
}
