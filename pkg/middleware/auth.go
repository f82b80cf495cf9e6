package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/snapcook/backend/pkg/httputil"
)

type contextKeyType string

const (
	userIDKey contextKeyType = "user_id"
	emailKey  contextKeyType = "email"
)

// Claims represents the identity decoded from a verified token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// RefreshTokenHeader is the secondary header clients may use to supply their
// refresh token alongside an expired access token.
const RefreshTokenHeader = "X-Refresh-Token"

// SessionValidator authenticates a request given its access token and the
// optional refresh token. On success it returns the caller's claims and, when
// the access token had to be renewed from the refresh token, the freshly
// minted access token. This allows the service to inject its own token logic.
type SessionValidator func(accessToken, refreshToken string) (*Claims, string, error)

// Session validates the bearer access token and injects user claims into
// context. A request without an Authorization header is rejected with 401
// before any refresh token is inspected (fail closed). If the access token
// fails verification the validator may fall back to the X-Refresh-Token
// header; a successful fallback silently renews the access token, which is
// stored in context for response writers to echo back. Any other outcome is a
// 403 and the handler never runs.
func Session(validate SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeSessionError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeSessionError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, renewed, err := validate(parts[1], r.Header.Get(RefreshTokenHeader))
			if err != nil {
				writeSessionError(w, http.StatusForbidden, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, emailKey, claims.Email)
			if renewed != "" {
				ctx = httputil.WithRenewedToken(ctx, renewed)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// EmailFromContext extracts the user email from the request context.
func EmailFromContext(ctx context.Context) string {
	if email, ok := ctx.Value(emailKey).(string); ok {
		return email
	}
	return ""
}

func writeSessionError(w http.ResponseWriter, status int, message string) {
	code := "UNAUTHORIZED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
