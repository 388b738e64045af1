package handlers

import (
	"net/http"
	"strings"
)

// contentPolicy lets the result page load artist artwork from any HTTPS host
// and embed the YouTube player; everything else stays same-origin.
const contentPolicy = "default-src 'self'; img-src 'self' https: data:; frame-src https://www.youtube.com"

var baseHeaders = map[string]string{
	"Content-Security-Policy": contentPolicy,
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "same-origin",
}

// SecurityHeaders sets the browser hardening headers on every response.
// API responses are additionally marked uncacheable since resolutions are
// memoized server side, and HSTS is sent on TLS connections.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range baseHeaders {
			h.Set(k, v)
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			h.Set("Cache-Control", "no-store")
		}
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}
