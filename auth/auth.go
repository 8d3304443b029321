// Package auth guards the API with the shared X-Token secret.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"net/http"
	"os"

	"github.com/diewo77/cobbler-crm/httpx"
)

// TokenHeader carries the shared secret on every request.
const TokenHeader = "X-Token"

// Secret returns APP_TOKEN or default dev value.
func Secret() string {
	if s := os.Getenv("APP_TOKEN"); s != "" {
		return s
	}
	return "devtoken"
}

// Valid compares the request token with secret in constant time.
func Valid(r *http.Request, secret string) bool {
	got := r.Header.Get(TokenHeader)
	if got == "" || secret == "" {
		return false
	}
	a := sha256.Sum256([]byte(got))
	b := sha256.Sum256([]byte(secret))
	return hmac.Equal(a[:], b[:])
}

// RequireToken rejects requests without the right X-Token with a 401
// envelope. Paths in open are let through.
func RequireToken(secret string, open ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(open))
	for _, p := range open {
		skip[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] || Valid(r, secret) {
				next.ServeHTTP(w, r)
				return
			}
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		})
	}
}
