package config

// EnvPrefix is the envconfig prefix; individual fields carry explicit
// REVENTA_ tags so the prefix mostly matters for error messages.
const EnvPrefix = "REVENTA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags (CLI help,
// validation messages, tests).
const (
	EnvAppEnv   = "REVENTA_APP_ENV"
	EnvPort     = "REVENTA_APP_PORT"
	EnvLogLevel = "REVENTA_LOG_LEVEL"

	EnvDBDSN  = "REVENTA_DB_DSN"
	EnvDBHost = "REVENTA_DB_HOST"
	EnvDBUser = "REVENTA_DB_USER"
	EnvDBName = "REVENTA_DB_NAME"

	EnvRedisURL = "REVENTA_REDIS_URL"

	EnvJWTSecret  = "REVENTA_JWT_SECRET"
	EnvJWTIssuer  = "REVENTA_JWT_ISSUER"
	EnvJWTExpMins = "REVENTA_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "REVENTA_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic      = "REVENTA_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub        = "REVENTA_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubNotificationSub  = "REVENTA_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvPubSubAnalyticsTopic   = "REVENTA_PUBSUB_ANALYTICS_TOPIC"
	EnvPubSubAnalyticsSub     = "REVENTA_PUBSUB_ANALYTICS_SUBSCRIPTION"
)

// legacyDBEnvVars are the discrete connection variables accepted when
// REVENTA_DB_DSN is unset. All three must be present to assemble a DSN.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
