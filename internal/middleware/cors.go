package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// local dev servers pick their own port
var devOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}

// CORSMiddleware admits the storefront front ends. Sessions travel in the
// Authorization header rather than cookies, so credentials stay disabled.
func CORSMiddleware(allowedOrigins []string, isDevelopment bool) func(http.Handler) http.Handler {
	origins := append([]string(nil), allowedOrigins...)
	if isDevelopment {
		origins = append(origins, devOrigins...)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		// the client reads these to back off and to quote request ids in bug reports
		ExposedHeaders: []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	})
}

// DefaultMiddlewareStack runs ahead of logging. Panics are handled by
// ErrorHandlingMiddleware so the envelope stays consistent.
func DefaultMiddlewareStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.CleanPath,
		middleware.NoCache,
		middleware.Compress(5),
	}
}
