package middleware

import (
	"net/http"

	"lakala-sdk/internal/auth"
	"lakala-sdk/internal/logger"
	"lakala-sdk/internal/utils"

	"go.uber.org/zap"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// operator in the request context.
func RequireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				utils.WriteJSONError(w, "missing access token", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ParseToken(secret, tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Warn("Rejected access token", zap.Error(err))
				utils.WriteJSONError(w, "invalid access token", http.StatusUnauthorized)
				return
			}

			ctx := utils.SetOperatorContext(r.Context(), claims.Subject, claims.Role)
			ctx = logger.WithFields(ctx, zap.String("operator", claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := utils.GetRoleFromContext(r.Context())
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.WriteJSONError(w, "forbidden", http.StatusForbidden)
		})
	}
}
