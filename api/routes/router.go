package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elida-shop/storefront-backend/api/controllers"
	webhookcontrollers "github.com/elida-shop/storefront-backend/api/controllers/webhooks"
	"github.com/elida-shop/storefront-backend/api/middleware"
	checkoutsvc "github.com/elida-shop/storefront-backend/internal/checkout"
	"github.com/elida-shop/storefront-backend/internal/orders"
	"github.com/elida-shop/storefront-backend/internal/payments"
	mcwebhook "github.com/elida-shop/storefront-backend/internal/webhooks/makecommerce"
	"github.com/elida-shop/storefront-backend/pkg/config"
	"github.com/elida-shop/storefront-backend/pkg/logger"
	pkgredis "github.com/elida-shop/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisClient pkgredis.IdempotencyStore,
	redisPinger controllers.Pinger,
	registry *prometheus.Registry,
	checkoutService checkoutsvc.Service,
	ordersService *orders.Service,
	paymentsService *payments.Service,
	webhookService *mcwebhook.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App),
		middleware.ClientIP(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPinger, redisPinger))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/makecommerce", webhookcontrollers.MakeCommerceWebhook(webhookService, logg))

		r.Route("/payments", func(r chi.Router) {
			r.Get("/return", controllers.PaymentReturn(paymentsService, cfg.App, logg))
			r.Get("/cancel", controllers.PaymentCancel(cfg.App, logg))
		})

		r.Get("/orders/{reference}", controllers.OrderDetail(ordersService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(redisClient, logg))
			r.Post("/checkout", controllers.Checkout(checkoutService, logg))
		})
	})

	return r
}
