package middleware

import (
	"net/http"
	"strings"
)

const mapsOrigins = "https://maps.googleapis.com https://maps.gstatic.com"

// SecureHeaders sets the browser hardening headers. When mapsEnabled is set the
// policy admits the Google Maps script and tile origins used by the dispatch board.
func SecureHeaders(isProd, mapsEnabled bool) func(http.Handler) http.Handler {
	policy := contentSecurityPolicy(mapsEnabled)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()
			headers.Set("X-Content-Type-Options", "nosniff")
			headers.Set("X-Frame-Options", "DENY")
			headers.Set("Referrer-Policy", "no-referrer")
			headers.Set("Permissions-Policy", "geolocation=(self), microphone=(), camera=(self), payment=()")
			headers.Set("Content-Security-Policy", policy)
			headers.Set("Cross-Origin-Opener-Policy", "same-origin")
			if isProd {
				headers.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func contentSecurityPolicy(mapsEnabled bool) string {
	script := "script-src 'self'"
	img := "img-src 'self' data: blob:"
	connect := "connect-src 'self'"
	if mapsEnabled {
		script += " " + mapsOrigins
		img += " " + mapsOrigins
		connect += " " + mapsOrigins
	}
	return strings.Join([]string{
		"default-src 'self'",
		"base-uri 'self'",
		"form-action 'self'",
		"frame-ancestors 'none'",
		"object-src 'none'",
		img,
		"style-src 'self' 'unsafe-inline'",
		script,
		connect,
	}, "; ")
}
