package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ckcelina/my-wishlist-sub002/pkg/health"
	"github.com/ckcelina/my-wishlist-sub002/pkg/middleware"
)

const serviceName = "wishlist"

// RouterConfig holds router settings.
type RouterConfig struct {
	RequestTimeout time.Duration

	// TrustProxyHeaders takes the client address from X-Real-IP or
	// X-Forwarded-For. Enable only behind a proxy that sets them.
	TrustProxyHeaders bool
}

// NewRouter creates a chi router with all wishlist import routes registered.
// Model-backed routes go through limiter.
func NewRouter(
	importHandler *ImportHandler,
	healthHandler *health.Handler,
	validateToken middleware.TokenValidator,
	limiter *middleware.RateLimiter,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(middleware.OptionalAuth(validateToken), limiter.Handler).
			Post("/import-wishlist", importHandler.ParseWishlist)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validateToken))

			r.Post("/import-wishlist/save", importHandler.SaveToWishlist)
			r.Post("/import-wishlist/create-and-save", importHandler.CreateAndSave)
			r.Post("/import-execute", importHandler.Execute)
			r.Post("/items/normalize-url", importHandler.NormalizeURL)

			r.With(limiter.Handler).Post("/detect-duplicates", importHandler.DetectDuplicates)
			r.With(limiter.Handler).Post("/auto-group-import-items", importHandler.AutoGroup)
		})
	})

	return r
}
