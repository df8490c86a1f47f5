package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"dropspace/pkg/domain"
	"dropspace/pkg/requestcontext"
)

// TokenValidator validates a bearer token and yields the caller it belongs to.
// Implemented by internal/jwtauth.
type TokenValidator interface {
	ValidateToken(tokenString string) (domain.Address, error)
}

// RequireAuth resolves the caller address from the Authorization header and
// stores it in the request context. Requests without a valid bearer token are
// rejected; every operation on the sale surface needs a caller identity, even
// the public ones (the service decides what the caller may do).
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			caller, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := requestcontext.WithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
