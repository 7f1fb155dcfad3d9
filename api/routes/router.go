package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reventa-uy/reventa-backend/api/controllers"
	analyticscontrollers "github.com/reventa-uy/reventa-backend/api/controllers/analytics"
	ordercontrollers "github.com/reventa-uy/reventa-backend/api/controllers/orders"
	webhookcontrollers "github.com/reventa-uy/reventa-backend/api/controllers/webhooks"
	"github.com/reventa-uy/reventa-backend/api/middleware"
	"github.com/reventa-uy/reventa-backend/internal/analytics"
	checkoutsvc "github.com/reventa-uy/reventa-backend/internal/checkout"
	"github.com/reventa-uy/reventa-backend/internal/cron"
	"github.com/reventa-uy/reventa-backend/internal/earnings"
	"github.com/reventa-uy/reventa-backend/internal/inventory"
	"github.com/reventa-uy/reventa-backend/internal/notifications"
	"github.com/reventa-uy/reventa-backend/internal/orders"
	"github.com/reventa-uy/reventa-backend/internal/payments"
	"github.com/reventa-uy/reventa-backend/pkg/config"
	"github.com/reventa-uy/reventa-backend/pkg/db"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface depends on. Nil services make
// their handlers answer 500 instead of panicking at wire time.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    db.Pinger
	RedisClient *redis.Client

	Inventory     inventory.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Payments      payments.Service
	Earnings      earnings.Service
	Notifications notifications.Service
	Analytics     analytics.Service

	WebhookVerifier webhookcontrollers.Verifier
	Reconciler      webhookcontrollers.Reconciler

	// Jobs holds the sweep jobs exposed for manual admin runs.
	Jobs *cron.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	var redisPinger redis.Pinger
	var idempotencyStore redis.IdempotencyStore
	if deps.RedisClient != nil {
		redisPinger = deps.RedisClient
		idempotencyStore = deps.RedisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, redisPinger))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/provider", webhookcontrollers.Provider(deps.WebhookVerifier, deps.Reconciler, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/listings", func(r chi.Router) {
			r.Post("/", controllers.CreateListing(deps.Inventory, logg))
			r.Get("/", controllers.ListMyListings(deps.Inventory, logg))
			r.Get("/{listingId}", controllers.GetListing(deps.Inventory, logg))
			r.Post("/{listingId}/cancel", controllers.CancelListing(deps.Inventory, logg))
		})

		r.Route("/v1/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(deps.Checkout, logg))
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			r.Post("/{orderId}/payments", controllers.CreatePayment(deps.Payments, logg))
			r.Get("/{orderId}/payments", controllers.ListOrderPayments(deps.Payments, logg))
		})

		r.Route("/v1/earnings", func(r chi.Router) {
			r.Get("/", controllers.ListEarnings(deps.Earnings, logg))
		})
		r.Post("/v1/payouts", controllers.RequestPayout(deps.Earnings, logg))

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Route("/v1/analytics", func(r chi.Router) {
			r.Get("/marketplace", analyticscontrollers.MarketplaceAnalytics(deps.Analytics, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.AdminPing())
		r.Post("/v1/payouts/{payoutId}/settle", controllers.SettlePayout(deps.Earnings, logg))
		r.Post("/v1/jobs/{jobName}/run", controllers.RunJob(deps.Jobs, logg))
		r.Get("/v1/analytics/marketplace", analyticscontrollers.MarketplaceAnalytics(deps.Analytics, logg))
	})

	return r
}
