package server

import (
	"net/http"
	"strings"
)

// CORSMiddleware returns middleware that permits cross-origin requests and
// short-circuits OPTIONS preflights with 204.
//
// The helper is consumed from inside a browser-hosted runtime, so every
// response carries the CORS headers, error responses included.
func CORSMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerMiddleware returns middleware that rejects requests lacking the
// expected bearer token. The token is read from the Authorization header or,
// for clients that cannot set custom headers (EventSource), from the "token"
// query parameter. Paths listed in exempt skip the check.
func BearerMiddleware(token string, exempt ...string) Middleware {
	exemptSet := make(map[string]struct{}, len(exempt))
	for _, path := range exempt {
		exemptSet[path] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptSet[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if requestToken(r) != token {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestToken extracts the bearer token from a request.
func requestToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimPrefix(auth, "Bearer ")
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
