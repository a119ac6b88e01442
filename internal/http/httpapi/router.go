package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"strang/internal/http/handlers"
	"strang/internal/middleware"
)

// RouterConfig carries the boundary settings that are not part of App.
type RouterConfig struct {
	APIKey      string
	CORSOrigins []string
	// TrustProxyHeaders lets X-Forwarded-For and X-Real-IP replace the peer
	// address. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
	Logger            zerolog.Logger
}

func NewRouter(app *handlers.App, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(
		middleware.RequestIDHeader,
		middleware.Logger(cfg.Logger),
		middleware.Recoverer(cfg.Logger),
		middleware.CORS(cfg.CORSOrigins),
	)
	r.NotFound(app.NotFound)
	r.MethodNotAllowed(app.MethodNotAllowed)

	r.Get("/health", app.Health)
	r.Get("/openapi.json", app.OpenAPIJSON)
	r.Get("/docs", app.OpenAPIDocs)

	r.Post("/waitlist", app.WaitlistJoin)
	r.Get("/waitlist/count", app.WaitlistCount)

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKey(cfg.APIKey))
		r.Post("/generate", app.Generate)
		r.Get("/generate/status/{job_id}", app.GenerateStatus)
		r.Get("/stats", app.StatsSummary)
	})

	return r
}
