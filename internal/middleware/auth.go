package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"faishion-storefront/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const SessionKey contextKey = "session"

// AuthMiddleware validates bearer tokens and stores the caller's session in
// the request context. The raw token is kept so it can be forwarded to the
// commerce backend.
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			// Check for Bearer token format
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			tokenString := parts[1]

			// Parse and validate token
			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				// Validate signing method
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			if !token.Valid {
				logger.Debug("Invalid token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			// Extract claims
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Error("Failed to extract claims from token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			subject, err := claims.GetSubject()
			if err != nil || subject == "" {
				logger.Debug("Missing sub in token claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			sess := domain.Session{
				Subject: subject,
				Roles:   rolesFromClaims(claims),
				Token:   tokenString,
			}

			logger.Debug("User authenticated",
				zap.String("sub", sess.Subject),
				zap.Strings("roles", sess.Roles),
			)

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// rolesFromClaims accepts either a "roles" array or a single "role" string
func rolesFromClaims(claims jwt.MapClaims) []string {
	var roles []string
	if list, ok := claims["roles"].([]interface{}); ok {
		for _, item := range list {
			if role, ok := item.(string); ok && role != "" {
				roles = append(roles, strings.ToUpper(role))
			}
		}
	}
	if role, ok := claims["role"].(string); ok && role != "" {
		roles = append(roles, strings.ToUpper(role))
	}
	return roles
}

// WithSession stores sess in ctx
func WithSession(ctx context.Context, sess domain.Session) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

// GetSession extracts the caller's session from request context
func GetSession(ctx context.Context) (domain.Session, bool) {
	sess, ok := ctx.Value(SessionKey).(domain.Session)
	return sess, ok
}
