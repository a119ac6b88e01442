package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the configured origins. A single "*" allows every origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		// "*" cannot be echoed with credentials, so reflect the caller's origin.
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	} else {
		opts.AllowedOrigins = allowedOrigins
	}
	return cors.Handler(opts)
}
