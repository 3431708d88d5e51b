package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
)

// RateLimiter counts requests in fixed windows.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries the services the router wires into controllers. Optional
// members may be nil.
type Deps struct {
	Devices     controllers.DeviceProvider
	Catalog     controllers.CatalogSource
	Limiter     RateLimiter
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	Health      map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Health))
	})

	mutations := middleware.NewRateLimitPolicy("mutation", cfg.RateLimit.Window, cfg.RateLimit.IPLimit, cfg.RateLimit.DeviceLimit)
	throttle := middleware.RateLimit(mutations, deps.Limiter, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.DeviceID(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Devices, logg))
			r.Get("/summary", controllers.CartSummary(deps.Devices, logg))
			r.With(throttle).Delete("/", controllers.CartClear(deps.Devices, logg))
			r.With(throttle, middleware.Idempotency(deps.Idempotency, logg)).
				Post("/lines", controllers.CartAddLine(deps.Devices, deps.Catalog, logg))
			r.With(throttle).Patch("/lines/{lineID}", controllers.CartSetQuantity(deps.Devices, logg))
			r.With(throttle).Delete("/lines/{lineID}", controllers.CartRemoveLine(deps.Devices, logg))
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", controllers.SessionStatus(deps.Devices, logg))
			r.With(throttle).Post("/login", controllers.SessionLogin(deps.Devices, logg))
			r.Post("/logout", controllers.SessionLogout(deps.Devices, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogProducts(deps.Devices, deps.Catalog, logg))
			r.Get("/products/{productID}", controllers.CatalogProduct(deps.Catalog, logg))
			r.Get("/categories", controllers.CatalogCategories(deps.Catalog, logg))
		})
	})

	return r
}
