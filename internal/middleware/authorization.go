package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireRole middleware ensures the session holds one of the specified roles
func RequireRole(allowedRoles []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSession(r.Context())
			if !ok {
				logger.Warn("Session not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if !sess.HasAnyRole(allowedRoles...) {
				logger.Warn("User role not authorized",
					zap.String("sub", sess.Subject),
					zap.Strings("roles", sess.Roles),
					zap.Strings("allowed_roles", allowedRoles),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
