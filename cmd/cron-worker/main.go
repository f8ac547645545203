package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/ticketing-backend/internal/cron"
	"github.com/angelmondragon/ticketing-backend/internal/events"
	"github.com/angelmondragon/ticketing-backend/internal/purchases"
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

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	mpClient, err := mercadopago.NewClient(cfg.MercadoPago, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mercadopago client", err)
		os.Exit(1)
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	outboxRepo := outbox.NewRepository(dbClient.DB())
	purchaseService, err := purchases.NewService(
		purchases.NewRepository(dbClient.DB()),
		dbClient,
		mpClient,
		outbox.NewService(outboxRepo, logg, instance.GetID(cfg.Service.Kind)),
		checkoutMetrics,
		logg,
		purchases.Options{PurchaseWindow: cfg.Checkout.PurchaseWindow, Currency: cfg.Checkout.Currency},
		nil,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchases service", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	expiryJob, err := cron.NewPurchaseExpiryJob(cron.PurchaseExpiryJobParams{
		Logger:    logg,
		Purchases: purchaseService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase expiry job", err)
		os.Exit(1)
	}
	if err := registry.Register(expiryJob); err != nil {
		logg.Error(context.Background(), "failed to register cron job", err)
		os.Exit(1)
	}

	finalizeJob, err := cron.NewEventFinalizeJob(cron.EventFinalizeJobParams{
		Logger: logg,
		Events: events.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create event finalize job", err)
		os.Exit(1)
	}
	if err := registry.Register(finalizeJob); err != nil {
		logg.Error(context.Background(), "failed to register cron job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		DB:            dbClient,
		Repository:    outboxRepo,
		RetentionDays: cfg.Outbox.RetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}
	if err := registry.Register(retentionJob); err != nil {
		logg.Error(context.Background(), "failed to register cron job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, cfg.Service.Kind, cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(cfg.Service.Kind),
		"lockKey":     lock.Key(),
	})
	logg.Info(ctx, "starting cron worker")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return service.Run(gctx) })
	g.Go(func() error { return metrics.Serve(gctx, cfg.Service.MetricsAddr, prometheus.DefaultGatherer, logg) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
