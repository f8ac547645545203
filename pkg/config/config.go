package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	MercadoPago  MercadoPagoConfig
	Checkout     CheckoutConfig
	SMTP         SMTPConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validateDriver(); err != nil {
		return nil, err
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"TIX_APP_ENV" required:"true"`
	Port         string   `envconfig:"TIX_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"TIX_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"TIX_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"TIX_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	Timezone     string   `envconfig:"TIX_TIMEZONE" default:"America/Bogota"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (a AppConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type ServiceConfig struct {
	Kind string `envconfig:"TIX_SERVICE_KIND" default:"api"`
	// MetricsAddr is where background workers expose /metrics. Empty disables it.
	MetricsAddr string `envconfig:"TIX_METRICS_ADDR"`
}

type DBConfig struct {
	DSN    string `envconfig:"TIX_DB_DSN"`
	Driver string `envconfig:"TIX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TIX_DB_HOST"`
	LegacyPort     int    `envconfig:"TIX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TIX_DB_USER"`
	LegacyPassword string `envconfig:"TIX_DB_PASSWORD"`
	LegacyName     string `envconfig:"TIX_DB_NAME"`
	LegacySSLMode  string `envconfig:"TIX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TIX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TIX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TIX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TIX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"TIX_DB_SLOW_QUERY" default:"250ms"`
	TxRetries       int           `envconfig:"TIX_DB_TX_RETRIES" default:"2"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TIX_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TIX_REDIS_ADDR"`
	Password     string        `envconfig:"TIX_REDIS_PASSWORD"`
	DB           int           `envconfig:"TIX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TIX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TIX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TIX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TIX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TIX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RateLimitConfig caps per-user request rates on the busiest mutating routes.
// A zero limit disables that rule.
type RateLimitConfig struct {
	PurchasesPerMinute int `envconfig:"TIX_RATE_PURCHASES_PER_MINUTE" default:"10"`
	TransfersPerHour   int `envconfig:"TIX_RATE_TRANSFERS_PER_HOUR" default:"20"`
	ValidationsPerMin  int `envconfig:"TIX_RATE_VALIDATIONS_PER_MINUTE" default:"240"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TIX_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TIX_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TIX_JWT_EXPIRATION_MINUTES" default:"60"`
	LeewaySeconds     int    `envconfig:"TIX_JWT_LEEWAY_SECONDS" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TIX_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TIX_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"TIX_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TIX_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TIX_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TIX_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"TIX_PUBSUB_DOMAIN_TOPIC" default:"tix-domain-events"`
	NotificationSubscription string `envconfig:"TIX_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"tix-notifications-sub"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TIX_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TIX_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TIX_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"TIX_OUTBOX_RETENTION_DAYS" default:"30"`
}

type MercadoPagoConfig struct {
	AccessToken     string `envconfig:"TIX_MERCADOPAGO_ACCESS_TOKEN"`
	WebhookSecret   string `envconfig:"TIX_MERCADOPAGO_WEBHOOK_SECRET"`
	NotificationURL string `envconfig:"TIX_MERCADOPAGO_NOTIFICATION_URL"`
	SuccessURL      string `envconfig:"TIX_MERCADOPAGO_SUCCESS_URL"`
	PendingURL      string `envconfig:"TIX_MERCADOPAGO_PENDING_URL"`
	FailureURL      string `envconfig:"TIX_MERCADOPAGO_FAILURE_URL"`
}

// Enabled reports whether the payment provider credentials are present.
func (m MercadoPagoConfig) Enabled() bool {
	return strings.TrimSpace(m.AccessToken) != ""
}

type CheckoutConfig struct {
	PurchaseWindow        time.Duration `envconfig:"TIX_CHECKOUT_PURCHASE_WINDOW" default:"45m"`
	Currency              string        `envconfig:"TIX_CHECKOUT_CURRENCY" default:"COP"`
	WebhookIdempotencyTTL time.Duration `envconfig:"TIX_CHECKOUT_WEBHOOK_IDEMPOTENCY_TTL" default:"10m"`
}

type SMTPConfig struct {
	Host        string `envconfig:"TIX_SMTP_HOST"`
	Port        int    `envconfig:"TIX_SMTP_PORT" default:"587"`
	Username    string `envconfig:"TIX_SMTP_USERNAME"`
	Password    string `envconfig:"TIX_SMTP_PASSWORD"`
	FromAddress string `envconfig:"TIX_SMTP_FROM_ADDRESS"`
	FromName    string `envconfig:"TIX_SMTP_FROM_NAME" default:"Tickets"`
}

// Addr returns host:port for the SMTP relay.
func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type CronConfig struct {
	Interval time.Duration `envconfig:"TIX_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"TIX_CRON_LOCK_TTL" default:"50s"`
}

func (db *DBConfig) validateDriver() error {
	switch strings.ToLower(strings.TrimSpace(db.Driver)) {
	case DBDriverPostgres, DBDriverSQLite:
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, db.Driver)
	}
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite || strings.EqualFold(db.Driver, DBDriverSQLite) {
		db.DSN = "file:tix.db?cache=shared"
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
