package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// UserIDHeader carries the authenticated caller id set by the upstream gateway.
const UserIDHeader = "X-User-ID"

// UserIdentity stores the caller id in the request context. Requests without the header
// are anonymous; a header that is not a positive integer is rejected with INVALID_INPUT.
func UserIdentity(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				logger.Debug("rejecting malformed user id", zap.String("value", raw))
				WriteError(w, http.StatusBadRequest, "INVALID_INPUT", UserIDHeader+" must be a positive integer")

				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserIDKey, id)))
		})
	}
}

// UserIDFromContext returns the caller id, or nil for anonymous requests.
func UserIDFromContext(ctx context.Context) *int64 {
	id, ok := ctx.Value(UserIDKey).(int64)
	if !ok {
		return nil
	}

	return &id
}
