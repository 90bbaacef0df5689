package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieSigner signs and verifies cookie values.
type CookieSigner interface {
	Sign(value string) string
	Verify(signed string) (string, error)
}

// CookieConfig describes the browser cookie shared by the login flow and the
// session.
type CookieConfig struct {
	Name       string
	Domain     string
	Secure     bool
	SessionTTL time.Duration
	FlowTTL    time.Duration
}

// SessionCookie reads and writes the signed browser cookie. Before login it
// holds the pending flow key; afterwards it holds the session id.
type SessionCookie struct {
	signer CookieSigner
	cfg    CookieConfig
}

// NewSessionCookie creates a new SessionCookie.
func NewSessionCookie(signer CookieSigner, cfg CookieConfig) *SessionCookie {
	return &SessionCookie{signer: signer, cfg: cfg}
}

// Read returns the verified cookie value, or "" when the cookie is absent or
// its signature does not check out.
func (sc *SessionCookie) Read(c echo.Context) string {
	cookie, err := c.Cookie(sc.cfg.Name)
	if err != nil || cookie.Value == "" {
		return ""
	}
	value, err := sc.signer.Verify(cookie.Value)
	if err != nil {
		return ""
	}
	return value
}

// WriteFlow stores a pending flow key for the duration of the flow.
func (sc *SessionCookie) WriteFlow(c echo.Context, key string) {
	sc.write(c, sc.signer.Sign(key), sc.cfg.FlowTTL)
}

// WriteSession stores a session id for the lifetime of the session.
func (sc *SessionCookie) WriteSession(c echo.Context, id string) {
	sc.write(c, sc.signer.Sign(id), sc.cfg.SessionTTL)
}

// Clear expires the cookie in the browser.
func (sc *SessionCookie) Clear(c echo.Context) {
	sc.write(c, "", -1)
}

func (sc *SessionCookie) write(c echo.Context, value string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     sc.cfg.Name,
		Value:    value,
		Path:     "/",
		Domain:   sc.cfg.Domain,
		HttpOnly: true,
		Secure:   sc.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	} else {
		cookie.MaxAge = int(ttl.Seconds())
	}
	c.SetCookie(cookie)
}
