package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sanabelapp/sanabel-backend/api/routes"
	"github.com/sanabelapp/sanabel-backend/internal/catalog"
	"github.com/sanabelapp/sanabel-backend/internal/customers"
	"github.com/sanabelapp/sanabel-backend/internal/ledger"
	"github.com/sanabelapp/sanabel-backend/internal/offers"
	"github.com/sanabelapp/sanabel-backend/internal/orders"
	"github.com/sanabelapp/sanabel-backend/internal/payments"
	"github.com/sanabelapp/sanabel-backend/internal/refunds"
	gatewaywebhook "github.com/sanabelapp/sanabel-backend/internal/webhooks/gateway"
	"github.com/sanabelapp/sanabel-backend/pkg/config"
	"github.com/sanabelapp/sanabel-backend/pkg/db"
	"github.com/sanabelapp/sanabel-backend/pkg/gateway"
	"github.com/sanabelapp/sanabel-backend/pkg/logger"
	"github.com/sanabelapp/sanabel-backend/pkg/metrics"
	"github.com/sanabelapp/sanabel-backend/pkg/migrate"
	"github.com/sanabelapp/sanabel-backend/pkg/redis"
	"github.com/sanabelapp/sanabel-backend/pkg/settings"
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
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gatewayClient, err := gateway.NewClient(cfg.Gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	settingsAccessor := settings.NewAccessor(dbClient.DB())

	catalogRepo := catalog.NewRepository(dbClient.DB())
	customersRepo := customers.NewRepository(dbClient.DB())
	offersRepo := offers.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	refundsRepo := refunds.NewRepository(dbClient.DB())
	eventsRepo := gatewaywebhook.NewEventsRepository(dbClient.DB())

	led, err := ledger.NewLedger(customersRepo, ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger", err)
		os.Exit(1)
	}

	ledgerSvc, err := ledger.NewService(dbClient, led, ledgerRepo, settingsAccessor)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	resolver, err := offers.NewResolver(offersRepo, catalogRepo, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create offer resolver", err)
		os.Exit(1)
	}

	paymentsSvc, err := payments.NewService(paymentsRepo, customersRepo, gatewayClient, settingsAccessor, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(dbClient, ordersRepo, catalogRepo, resolver, customersRepo, led, paymentsSvc, settingsAccessor, logg, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	refundsSvc, err := refunds.NewService(dbClient, refundsRepo, ordersRepo, logg, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create refunds service", err)
		os.Exit(1)
	}

	webhookSvc, err := gatewaywebhook.NewService(dbClient, eventsRepo, paymentsRepo, ordersRepo, led, gatewayClient, settingsAccessor, webhookMetrics, logg, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard := gatewaywebhook.NewGuard(redisClient, cfg.Webhook.DedupeTTL)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Orders:       ordersSvc,
			Ledger:       ledgerSvc,
			Payments:     paymentsSvc,
			Refunds:      refundsSvc,
			Offers:       offersRepo,
			Webhooks:     webhookSvc,
			WebhookGuard: webhookGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
