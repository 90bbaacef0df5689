package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func serveWithHeaders(hsts bool) *httptest.ResponseRecorder {
	e := echo.New()
	e.Use(SecurityHeaders(hsts))
	e.GET("/login", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "https://login.example/+openid")
	})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeaders_SetsAllHeaders(t *testing.T) {
	rec := serveWithHeaders(true)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "max-age=63072000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestSecurityHeaders_NoHSTSWithoutTLS(t *testing.T) {
	rec := serveWithHeaders(false)

	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
