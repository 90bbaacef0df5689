package usecase

import (
	"net/url"
	"strings"
	"unicode"
)

const defaultNextURL = "/"

// SanitizeNextURL returns raw when it is a same-origin relative path and "/"
// otherwise. Scheme-relative ("//host") and backslash ("/\host") forms are
// rejected because browsers treat them as absolute.
func SanitizeNextURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return defaultNextURL
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return defaultNextURL
	}
	if strings.ContainsFunc(raw, func(r rune) bool { return unicode.IsControl(r) || r == '\\' }) {
		return defaultNextURL
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return defaultNextURL
	}
	return raw
}
