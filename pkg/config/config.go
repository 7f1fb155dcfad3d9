package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Fees     FeesConfig
	Orders   OrdersConfig
	Earnings EarningsConfig
	Provider ProviderConfig
	Eventing EventingConfig
	Flags    FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
	Notifications NotificationsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"REVENTA_APP_ENV" required:"true"`
	Port         string `envconfig:"REVENTA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"REVENTA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REVENTA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"REVENTA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"REVENTA_DB_DSN"`
	Driver string `envconfig:"REVENTA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"REVENTA_DB_HOST"`
	LegacyPort     int    `envconfig:"REVENTA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"REVENTA_DB_USER"`
	LegacyPassword string `envconfig:"REVENTA_DB_PASSWORD"`
	LegacyName     string `envconfig:"REVENTA_DB_NAME"`
	LegacySSLMode  string `envconfig:"REVENTA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REVENTA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REVENTA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REVENTA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REVENTA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REVENTA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"REVENTA_REDIS_ADDR"`
	Password     string        `envconfig:"REVENTA_REDIS_PASSWORD"`
	DB           int           `envconfig:"REVENTA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REVENTA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REVENTA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REVENTA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REVENTA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REVENTA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"REVENTA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"REVENTA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"REVENTA_JWT_EXPIRATION_MINUTES" required:"true"`
}

// FeesConfig carries the marketplace fee rates in basis points. Rates stay
// integral here; the fee calculator converts to decimals when it rounds.
type FeesConfig struct {
	CommissionRateBps int `envconfig:"REVENTA_FEE_COMMISSION_BPS" default:"1000"`
	VATRateBps        int `envconfig:"REVENTA_FEE_VAT_BPS" default:"2200"`
}

type OrdersConfig struct {
	ReservationWindow time.Duration `envconfig:"REVENTA_ORDER_RESERVATION_WINDOW" default:"15m"`
	MaxTicketsPer     int           `envconfig:"REVENTA_ORDER_MAX_TICKETS" default:"10"`
	AllocatorRetries  int           `envconfig:"REVENTA_ORDER_ALLOCATOR_RETRIES" default:"3"`
	ExpireBatchSize   int           `envconfig:"REVENTA_ORDER_EXPIRE_BATCH_SIZE" default:"100"`
}

type EarningsConfig struct {
	HoldDuration time.Duration `envconfig:"REVENTA_EARNINGS_HOLD_DURATION" default:"48h"`
	BatchSize    int           `envconfig:"REVENTA_EARNINGS_BATCH_SIZE" default:"100"`
}

// ProviderConfig configures the payment provider adapter. The webhook
// secret verifies inbound notification signatures; the API key
// authenticates outbound provider calls.
type ProviderConfig struct {
	Name          string        `envconfig:"REVENTA_PAYMENT_PROVIDER" default:"mercadopago"`
	APIKey        string        `envconfig:"REVENTA_PROVIDER_API_KEY"`
	BaseURL       string        `envconfig:"REVENTA_PROVIDER_BASE_URL" default:"https://api.mercadopago.com"`
	WebhookSecret string        `envconfig:"REVENTA_PROVIDER_WEBHOOK_SECRET"`
	CallTimeout   time.Duration `envconfig:"REVENTA_PROVIDER_CALL_TIMEOUT" default:"10s"`
	SyncStaleAge  time.Duration `envconfig:"REVENTA_PROVIDER_SYNC_STALE_AGE" default:"5m"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"REVENTA_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"REVENTA_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"REVENTA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"REVENTA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"REVENTA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"REVENTA_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription       string `envconfig:"REVENTA_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"REVENTA_PUBSUB_NOTIFICATION_TOPIC" default:"rv-notification-events"`
	NotificationSubscription string `envconfig:"REVENTA_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
	AnalyticsTopic           string `envconfig:"REVENTA_PUBSUB_ANALYTICS_TOPIC" required:"true"`
	AnalyticsSubscription    string `envconfig:"REVENTA_PUBSUB_ANALYTICS_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset                string `envconfig:"REVENTA_BIGQUERY_DATASET" default:"reventa"`
	MarketplaceEventsTable string `envconfig:"REVENTA_BIGQUERY_MARKETPLACE_TABLE" default:"marketplace_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"REVENTA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"REVENTA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"REVENTA_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"REVENTA_OUTBOX_RETENTION_DAYS" default:"30"`
}

type NotificationsConfig struct {
	RetentionDays     int `envconfig:"REVENTA_NOTIFICATIONS_RETENTION_DAYS" default:"30"`
	DispatchBatchSize int `envconfig:"REVENTA_NOTIFICATIONS_DISPATCH_BATCH_SIZE" default:"100"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
