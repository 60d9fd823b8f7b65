package middleware

import (
	"context"
	"log/slog"
	"net/http"

	id "trueconnect/pkg/domain"
)

// AdminChecker reports whether the given user holds the administrator role.
// Backed by the profile store; the flag is never carried in the token, so a
// revoked admin loses access on the next request.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID id.UserID) (bool, error)
}

// RequireAdmin refuses non-administrators with 403 before the wrapped handler
// runs. It must be mounted inside RequireAuth. A refused request never reaches
// queue data or subscriptions.
func RequireAdmin(checker AdminChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := GetUserID(ctx)
			if userID.IsNil() {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing authentication context")
				return
			}

			isAdmin, err := checker.IsAdmin(ctx, userID)
			if err != nil {
				logger.ErrorContext(ctx, "failed to check admin role",
					"error", err,
					"user_id", userID.String(),
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to check permissions")
				return
			}
			if !isAdmin {
				logger.WarnContext(ctx, "access denied - admin required",
					"user_id", userID.String(),
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "You don't have admin privileges to access this panel.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
