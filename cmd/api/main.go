package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/elida-shop/storefront-backend/api/routes"
	"github.com/elida-shop/storefront-backend/internal/checkout"
	"github.com/elida-shop/storefront-backend/internal/notifier"
	"github.com/elida-shop/storefront-backend/internal/orders"
	"github.com/elida-shop/storefront-backend/internal/payments"
	mcwebhook "github.com/elida-shop/storefront-backend/internal/webhooks/makecommerce"
	"github.com/elida-shop/storefront-backend/pkg/config"
	"github.com/elida-shop/storefront-backend/pkg/db"
	"github.com/elida-shop/storefront-backend/pkg/ipify"
	"github.com/elida-shop/storefront-backend/pkg/logger"
	"github.com/elida-shop/storefront-backend/pkg/makecommerce"
	"github.com/elida-shop/storefront-backend/pkg/metrics"
	"github.com/elida-shop/storefront-backend/pkg/migrate"
	"github.com/elida-shop/storefront-backend/pkg/redis"
)

const (
	shutdownTimeout = 15 * time.Second

	// Gateway notification replays arrive within minutes; a day of dedup
	// comfortably covers the retry schedule.
	notificationDedupTTL = 24 * time.Hour
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	gatewayClient, err := makecommerce.NewClient(context.Background(), cfg.MakeCommerce, logg, paymentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway client", err)
		os.Exit(1)
	}

	ipClient := ipify.NewClient(cfg.IPLookup)

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	notifierService, err := notifier.NewService(cfg.Notifier, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}
	if !notifierService.Enabled() {
		logg.Warn(context.Background(), "downstream notifier disabled, no webhook URL configured")
	}

	checkoutService, err := checkout.NewService(ordersRepo, gatewayClient, ipClient, logg, paymentMetrics, cfg.App, cfg.Checkout)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(ordersRepo, gatewayClient, notifierService, logg, paymentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	notificationGuard, err := mcwebhook.NewIdempotencyGuard(redisClient, notificationDedupTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification guard", err)
		os.Exit(1)
	}

	webhookService, err := mcwebhook.NewService(paymentsService, notificationGuard, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg,
			dbClient, redisClient, redisClient,
			registry,
			checkoutService, ordersService, paymentsService, webhookService,
		),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			closeClients(ctx, logg, dbClient, redisClient)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	closeClients(ctx, logg, dbClient, redisClient)
	logg.Info(ctx, "api server shut down")
}

func closeClients(ctx context.Context, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) {
	err := multierr.Combine(dbClient.Close(), redisClient.Close())
	if err != nil {
		logg.Error(ctx, "error closing clients", err)
	}
}
