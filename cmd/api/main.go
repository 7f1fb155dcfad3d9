package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/reventa-uy/reventa-backend/api/routes"
	"github.com/reventa-uy/reventa-backend/internal/analytics"
	checkoutsvc "github.com/reventa-uy/reventa-backend/internal/checkout"
	"github.com/reventa-uy/reventa-backend/internal/cron"
	"github.com/reventa-uy/reventa-backend/internal/earnings"
	"github.com/reventa-uy/reventa-backend/internal/inventory"
	"github.com/reventa-uy/reventa-backend/internal/notifications"
	"github.com/reventa-uy/reventa-backend/internal/orders"
	"github.com/reventa-uy/reventa-backend/internal/payments"
	"github.com/reventa-uy/reventa-backend/internal/payments/provider"
	"github.com/reventa-uy/reventa-backend/internal/payments/provider/mercadopago"
	"github.com/reventa-uy/reventa-backend/internal/reconciliation"
	"github.com/reventa-uy/reventa-backend/pkg/bigquery"
	"github.com/reventa-uy/reventa-backend/pkg/config"
	"github.com/reventa-uy/reventa-backend/pkg/db"
	"github.com/reventa-uy/reventa-backend/pkg/enums"
	"github.com/reventa-uy/reventa-backend/pkg/fees"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/migrate"
	"github.com/reventa-uy/reventa-backend/pkg/outbox"
	"github.com/reventa-uy/reventa-backend/pkg/redis"
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

	calculator, err := fees.NewCalculator(cfg.Fees.CommissionRateBps, cfg.Fees.VATRateBps)
	if err != nil {
		logg.Error(context.Background(), "invalid fee configuration", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)
	ordersRepo := orders.NewRepository(gormDB)
	earningsRepo := earnings.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)

	inventorySvc, err := inventory.NewService(inventory.NewRepository(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

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

	checkoutSvc, err := checkoutsvc.NewService(
		dbClient,
		checkoutsvc.NewRepository(gormDB),
		ordersRepo,
		calculator,
		nil,
		outboxSvc,
		checkoutsvc.Config{
			ReservationWindow: cfg.Orders.ReservationWindow,
			MaxTickets:        cfg.Orders.MaxTicketsPer,
			AllocatorRetries:  cfg.Orders.AllocatorRetries,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	paymentsSvc, err := payments.NewService(dbClient, paymentsRepo, ordersRepo, providers)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
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

	earningsSvc, err := earnings.NewService(logg, dbClient, earningsRepo, outboxSvc, earnings.NoDisputes{})
	if err != nil {
		logg.Error(context.Background(), "failed to create earnings service", err)
		os.Exit(1)
	}

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	// Sweep jobs exposed for manual admin runs; the cron worker owns the
	// scheduled cadence.
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
	jobs := cron.NewRegistry(expirationJob, paymentSyncJob, earningsHoldJob)

	var analyticsSvc analytics.Service
	if bqClient, bqErr := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg); bqErr != nil {
		logg.Warn(context.Background(), "bigquery unavailable, analytics endpoints disabled")
	} else {
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery", err)
			}
		}()
		analyticsSvc, err = analytics.NewService(bqClient, cfg.GCP.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.MarketplaceEventsTable)
		if err != nil {
			logg.Error(context.Background(), "failed to create analytics service", err)
			os.Exit(1)
		}
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
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			RedisClient:     redisClient,
			Inventory:       inventorySvc,
			Checkout:        checkoutSvc,
			Orders:          ordersSvc,
			Payments:        paymentsSvc,
			Earnings:        earningsSvc,
			Notifications:   notificationsSvc,
			Analytics:       analyticsSvc,
			WebhookVerifier: mpClient,
			Reconciler:      reconciler,
			Jobs:            jobs,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
