package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ckcelina/my-wishlist-sub002/pkg/httputil"
	"github.com/ckcelina/my-wishlist-sub002/pkg/logger"
)

type userCtxKey struct{}

// Claims are the session claims the auth middleware cares about.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

// Auth rejects requests without a valid bearer token.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return authenticate(validate, true)
}

// OptionalAuth attaches the user when a valid bearer token is present and
// lets anonymous requests through. A malformed or invalid token is still
// rejected.
func OptionalAuth(validate TokenValidator) func(http.Handler) http.Handler {
	return authenticate(validate, false)
}

func authenticate(validate TokenValidator, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				if required {
					writeAuthError(w, "missing authorization header")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				writeAuthError(w, "invalid authorization header format")
				return
			}

			claims, err := validate(strings.TrimSpace(token))
			if err != nil || claims.UserID == "" {
				writeAuthError(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), claims.UserID)))
		})
	}
}

// withUser stores the user id and re-scopes the request logger with it.
func withUser(ctx context.Context, userID string) context.Context {
	ctx = context.WithValue(ctx, userCtxKey{}, userID)
	ctx = logger.WithUserID(ctx, userID)
	return logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("user_id", userID)))
}

// UserIDFromContext returns the authenticated user id or "".
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userCtxKey{}).(string)
	return id
}

// ContextWithUserID is used by tests and internal callers to act as a user.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userCtxKey{}, userID)
}

func writeAuthError(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorBody{
		Error: httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: message},
	})
}
