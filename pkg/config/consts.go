package config

const EnvPrefix = "TIX"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "TIX_APP_ENV"
	EnvPort     = "TIX_APP_PORT"
	EnvLogLevel = "TIX_LOG_LEVEL"

	EnvDBDSN    = "TIX_DB_DSN"
	EnvDBDriver = "TIX_DB_DRIVER"
	EnvDBHost   = "TIX_DB_HOST"
	EnvDBPort   = "TIX_DB_PORT"
	EnvDBUser   = "TIX_DB_USER"
	EnvDBPass   = "TIX_DB_PASSWORD"
	EnvDBName   = "TIX_DB_NAME"
	EnvUseSQL   = "TIX_USE_SQLITE"

	EnvRedisURL = "TIX_REDIS_URL"

	EnvJWTSecret  = "TIX_JWT_SECRET"
	EnvJWTIssuer  = "TIX_JWT_ISSUER"
	EnvJWTExpMins = "TIX_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID      = "TIX_GCP_PROJECT_ID"
	EnvPubSubDomainTopic = "TIX_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubNotifySub   = "TIX_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvMercadoPagoToken  = "TIX_MERCADOPAGO_ACCESS_TOKEN"
	EnvMercadoPagoSecret = "TIX_MERCADOPAGO_WEBHOOK_SECRET"

	EnvPurchaseWindow = "TIX_CHECKOUT_PURCHASE_WINDOW"
	EnvSMTPHost       = "TIX_SMTP_HOST"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
