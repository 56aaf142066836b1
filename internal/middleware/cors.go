package middleware

import (
	"net/http"
	"strings"
)

// corsMaxAge is how long browsers may cache a preflight response, in seconds
const corsMaxAge = "3600"

// OriginAllowed reports whether origin matches the allowed prefix. Requests
// without an Origin header are not cross-origin and always pass; an empty
// prefix allows every origin.
func OriginAllowed(origin, prefix string) bool {
	if origin == "" || prefix == "" {
		return true
	}
	return strings.HasPrefix(origin, prefix)
}

// CORS allows cross-origin requests from origins starting with prefix
func CORS(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && OriginAllowed(origin, prefix) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "*")
				h.Set("Access-Control-Max-Age", corsMaxAge)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
