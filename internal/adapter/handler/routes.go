package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Routes bundles the handlers served by sso-hub.
type Routes struct {
	Login    *LoginHandler
	Callback *CallbackHandler
	Logout   *LogoutHandler
	Verify   *VerifyHandler
	User     *UserHandler
	Health   *HealthHandler

	// FlowLimit guards the endpoints that start or finish a login.
	FlowLimit echo.MiddlewareFunc
	// Metrics is mounted at /metrics when non-nil, behind MetricsGuard.
	Metrics      http.Handler
	MetricsGuard echo.MiddlewareFunc
}

// Register mounts r on e.
func Register(e *echo.Echo, r Routes) {
	var flowMW []echo.MiddlewareFunc
	if r.FlowLimit != nil {
		flowMW = append(flowMW, r.FlowLimit)
	}

	e.GET("/login", r.Login.Handle, flowMW...)
	e.GET("/callback", r.Callback.Handle, flowMW...)
	e.GET("/logout", r.Logout.Handle)
	e.GET("/verify-and-inject", r.Verify.Handle)
	e.GET("/user", r.User.Handle)
	e.GET("/health", r.Health.Handle)

	if r.Metrics != nil {
		var metricsMW []echo.MiddlewareFunc
		if r.MetricsGuard != nil {
			metricsMW = append(metricsMW, r.MetricsGuard)
		}
		e.GET("/metrics", echo.WrapHandler(r.Metrics), metricsMW...)
	}
}
