package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type AppConfig struct {
	// Server
	Env       string `env:"APP_ENV" envDefault:"production"`
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8000"`
	BaseURL   string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASS"`

	// Allowed browser origins; empty allows any.
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	DB       DBConfig
	Auth     AuthConfig
	Stripe   StripeConfig
	Postmark PostmarkConfig
	Cron     CronConfig
	Booking  BookingConfig
}

type DBConfig struct {
	URL               string        `env:"DATABASE_URL,required,notEmpty"`
	MaxConns          int32         `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	MinConns          int32         `env:"DATABASE_MIN_CONNS" envDefault:"2"`
	HealthCheckPeriod time.Duration `env:"DATABASE_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"DATABASE_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"DATABASE_MAX_CONN_LIFETIME" envDefault:"30m"`
	RetryAttempts     int           `env:"DATABASE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval     time.Duration `env:"DATABASE_RETRY_INTERVAL" envDefault:"2s"`
	MigrationsTable   string        `env:"DATABASE_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
	AutoMigrate       bool          `env:"DATABASE_AUTO_MIGRATE" envDefault:"true"`
}

// AuthConfig describes the hosted identity service's access tokens.
type AuthConfig struct {
	JWTSecret  string `env:"AUTH_JWT_SECRET,required,notEmpty"`
	Audience   string `env:"AUTH_JWT_AUDIENCE" envDefault:"authenticated"`
	Issuer     string `env:"AUTH_JWT_ISSUER"`
	CookieName string `env:"AUTH_COOKIE_NAME" envDefault:"sb-access-token"`
}

type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	PriceMonthly  string `env:"STRIPE_PRICE_MONTHLY"`
	PriceAnnually string `env:"STRIPE_PRICE_ANNUALLY"`
}

type PostmarkConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	From         string `env:"EMAIL_FROM" envDefault:"Inboker <hello@inboker.com>"`
	Support      string `env:"EMAIL_SUPPORT" envDefault:"support@inboker.com"`
}

// Enabled reports whether real delivery is configured.
func (p PostmarkConfig) Enabled() bool {
	return p.ServerToken != ""
}

type CronConfig struct {
	Secret    string `env:"CRON_SECRET"`
	Schedule  string `env:"CRON_SCHEDULE" envDefault:"0 0 9 * * *"`
	TargetURL string `env:"CRON_TARGET_URL" envDefault:"http://localhost:8000/api/v1/cron/trial-reminders"`
}

type BookingConfig struct {
	RateLimit  int64         `env:"BOOKING_RATE_LIMIT" envDefault:"10"`
	RateWindow time.Duration `env:"BOOKING_RATE_WINDOW" envDefault:"10m"`
}

// IsProduction reports whether redirect URLs must use the canonical base URL.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load parses environment variables into AppConfig.
func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

// LoadCron parses only what the cron trigger needs.
func LoadCron() (CronConfig, error) {
	var cfg CronConfig
	if err := env.Parse(&cfg); err != nil {
		return CronConfig{}, fmt.Errorf("failed to parse cron config: %w", err)
	}
	return cfg, nil
}
