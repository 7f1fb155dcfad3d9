package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/reventa-uy/reventa-backend/internal/cron"
	"github.com/reventa-uy/reventa-backend/internal/earnings"
	"github.com/reventa-uy/reventa-backend/internal/notifications"
	"github.com/reventa-uy/reventa-backend/internal/orders"
	"github.com/reventa-uy/reventa-backend/internal/payments"
	"github.com/reventa-uy/reventa-backend/internal/payments/provider"
	"github.com/reventa-uy/reventa-backend/internal/payments/provider/mercadopago"
	"github.com/reventa-uy/reventa-backend/internal/reconciliation"
	"github.com/reventa-uy/reventa-backend/pkg/config"
	"github.com/reventa-uy/reventa-backend/pkg/db"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/metrics"
	"github.com/reventa-uy/reventa-backend/pkg/migrate"
	"github.com/reventa-uy/reventa-backend/pkg/outbox"
	"github.com/reventa-uy/reventa-backend/pkg/pubsub"
	"github.com/reventa-uy/reventa-backend/pkg/redis"
)

const lockKeyFormat = "rv:cron-worker:lock:%s"

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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	providerName, err := enums.ParsePaymentProvider(cfg.Provider.Name)
	if err != nil {
		logg.Error(context.Background(), "unknown payment provider", err)
		os.Exit(1)
	}
	providers := provider.NewFactory(providerName)
	mpClient, err := mercadopago.NewClient(context.Background(), cfg.Provider, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build payment provider client", err)
		os.Exit(1)
	}
	providers.Register(mpClient)

	gormDB := dbClient.DB()
	outboxRepo := outbox.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outboxRepo, logg)
	ordersRepo := orders.NewRepository(gormDB)
	earningsRepo := earnings.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)

	earningsWriter, err := earnings.NewWriter(earningsRepo, cfg.Earnings.HoldDuration)
	if err != nil {
		logg.Error(context.Background(), "failed to create earnings writer", err)
		os.Exit(1)
	}
	ordersSvc, err := orders.NewService(ordersRepo, dbClient, outboxSvc, earningsWriter)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	earningsSvc, err := earnings.NewService(logg, dbClient, earningsRepo, outboxSvc, earnings.NoDisputes{})
	if err != nil {
		logg.Error(context.Background(), "failed to create earnings service", err)
		os.Exit(1)
	}
	reconciler, err := reconciliation.NewEngine(reconciliation.EngineParams{
		Logger:    logg,
		DB:        dbClient,
		Payments:  paymentsRepo,
		Orders:    ordersRepo,
		OrdersSvc: ordersSvc,
		Providers: providers,
		Outbox:    outboxSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciliation engine", err)
		os.Exit(1)
	}
	sender, err := notifications.NewPubSubSender(pubsubClient.NotificationPublisher())
	if err != nil {
		logg.Error(context.Background(), "failed to create notification sender", err)
		os.Exit(1)
	}

	expirationJob, err := cron.NewOrderExpirationJob(cron.OrderExpirationJobParams{
		Logger:    logg,
		DB:        dbClient,
		Orders:    ordersRepo,
		Outbox:    outboxSvc,
		BatchSize: cfg.Orders.ExpireBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order expiration job", err)
		os.Exit(1)
	}
	paymentSyncJob, err := cron.NewPaymentSyncJob(cron.PaymentSyncJobParams{
		Logger:     logg,
		Payments:   paymentsRepo,
		Reconciler: reconciler,
		StaleAge:   cfg.Provider.SyncStaleAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment sync job", err)
		os.Exit(1)
	}
	earningsHoldJob, err := cron.NewEarningsHoldJob(cron.EarningsHoldJobParams{
		Logger:    logg,
		Earnings:  earningsSvc,
		BatchSize: cfg.Earnings.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create earnings hold job", err)
		os.Exit(1)
	}
	notificationDispatchJob, err := cron.NewNotificationDispatchJob(cron.NotificationDispatchJobParams{
		Logger:     logg,
		Repository: notificationsRepo,
		Sender:     sender,
		BatchSize:  cfg.Notifications.DispatchBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification dispatch job", err)
		os.Exit(1)
	}
	notificationCleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: notificationsRepo,
		Retention:  cfg.Notifications.RetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}
	outboxRetentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outboxRepo,
		Retention:   cfg.Outbox.RetentionDays,
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(
		expirationJob,
		paymentSyncJob,
		earningsHoldJob,
		notificationDispatchJob,
		notificationCleanupJob,
		outboxRetentionJob,
	)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
