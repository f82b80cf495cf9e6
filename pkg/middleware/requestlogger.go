package middleware

import (
	"log/slog"
	"net/http"

	"github.com/snapcook/backend/pkg/logger"
)

// RequestLogger stores a request-scoped logger in context, enriched with
// correlation_id, user_id, trace_id, and span_id where available. Handlers
// retrieve it with logger.FromContext(ctx).
//
// Mount after RequestLogging (which assigns the correlation ID) and Tracing
// (which opens the span).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// The session middleware runs later on authenticated routes, so
			// at this point the user ID can only come from a prior context
			// value or the X-User-ID header set by trusted internal callers.
			userID := UserIDFromContext(ctx)
			if userID == "" {
				userID = r.Header.Get("X-User-ID")
			}
			if userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
