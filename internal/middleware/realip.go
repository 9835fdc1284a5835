package middleware

import (
	"net/http"

	"lakala-sdk/internal/utils"
)

// RealIP resolves the caller's address once per request. Forwarding headers
// are honoured only from peers in trusted.
func RealIP(trusted utils.TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := utils.SetClientIP(r.Context(), trusted.Resolve(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
