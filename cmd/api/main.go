package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/ticketing-backend/api/responses"
	"github.com/angelmondragon/ticketing-backend/api/routes"
	"github.com/angelmondragon/ticketing-backend/internal/cart"
	"github.com/angelmondragon/ticketing-backend/internal/pricing"
	"github.com/angelmondragon/ticketing-backend/internal/purchases"
	"github.com/angelmondragon/ticketing-backend/internal/tickets"
	mpwebhook "github.com/angelmondragon/ticketing-backend/internal/webhooks/mercadopago"
	"github.com/angelmondragon/ticketing-backend/pkg/config"
	"github.com/angelmondragon/ticketing-backend/pkg/db"
	"github.com/angelmondragon/ticketing-backend/pkg/instance"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
	"github.com/angelmondragon/ticketing-backend/pkg/mercadopago"
	"github.com/angelmondragon/ticketing-backend/pkg/metrics"
	"github.com/angelmondragon/ticketing-backend/pkg/migrate"
	"github.com/angelmondragon/ticketing-backend/pkg/outbox"
	"github.com/angelmondragon/ticketing-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
	responses.SetVerbose(cfg.App.IsDev())

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

	mpClient, err := mercadopago.NewClient(cfg.MercadoPago, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mercadopago client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg, instance.GetID(cfg.Service.Kind))

	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), dbClient, pricing.NewResolver(nil), logg, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	purchaseRepo := purchases.NewRepository(dbClient.DB())
	purchaseService, err := purchases.NewService(
		purchaseRepo,
		dbClient,
		mpClient,
		emitter,
		checkoutMetrics,
		logg,
		purchases.Options{PurchaseWindow: cfg.Checkout.PurchaseWindow, Currency: cfg.Checkout.Currency},
		nil,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchases service", err)
		os.Exit(1)
	}

	issuer := tickets.NewIssuer(logg, checkoutMetrics)
	ticketService, err := tickets.NewService(tickets.NewRepository(dbClient.DB()), dbClient, issuer, emitter, logg, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create tickets service", err)
		os.Exit(1)
	}

	guard, err := mpwebhook.NewGuard(redisClient, cfg.Checkout.WebhookIdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}
	webhookService, err := mpwebhook.NewService(mpwebhook.ServiceParams{
		Purchases:         purchaseRepo,
		Payments:          mpClient,
		Issuer:            issuer,
		Outbox:            emitter,
		TransactionRunner: dbClient,
		Guard:             guard,
		Metrics:           checkoutMetrics,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create mercadopago webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(cfg.Service.Kind),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Gatherer:  registry,
			Cart:      cartService,
			Purchases: purchaseService,
			Tickets:   ticketService,
			Webhook:   webhookService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
