package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultInternalToken = "change-me-internal-token"
)

type App struct {
	AppEnv        string        `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr      string        `envconfig:"HTTP_ADDR" default:":8080"`
	DatabaseURL   string        `envconfig:"DATABASE_URL" default:"cleandigo.db?_pragma=busy_timeout(5000)&_time_format=sqlite"`
	JWTSecret     string        `envconfig:"JWT_SECRET" default:"change-me-jwt-secret"`
	JWTTTL        time.Duration `envconfig:"JWT_TTL" default:"24h"`
	InternalToken string        `envconfig:"INTERNAL_TOKEN" default:"change-me-internal-token"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	RedisURL       string `envconfig:"REDIS_URL"`
	RabbitURL      string `envconfig:"RABBIT_URL"`
	RabbitExchange string `envconfig:"RABBIT_EXCHANGE" default:"cleandigo.bookings"`

	MailTransport string `envconfig:"MAIL_TRANSPORT" default:"log"`
	SMTPHost      string `envconfig:"SMTP_HOST"`
	SMTPPort      int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername  string `envconfig:"SMTP_USERNAME"`
	SMTPPassword  string `envconfig:"SMTP_PASSWORD"`
	MailFrom      string `envconfig:"MAIL_FROM" default:"bookings@cleandigo.com.au"`
	SMSEnabled    bool   `envconfig:"SMS_ENABLED" default:"false"`
	OpsEmail      string `envconfig:"OPS_EMAIL" default:"admin@cleandigo.com.au"`

	StaleThresholdHours int    `envconfig:"STALE_THRESHOLD_HOURS" default:"24"`
	StaleSweepCron      string `envconfig:"STALE_SWEEP_CRON" default:"0 9 * * *"`
	SweepEnabled        bool   `envconfig:"SWEEP_ENABLED" default:"false"`

	NotifyMaxAttempts    int           `envconfig:"NOTIFY_MAX_ATTEMPTS" default:"3"`
	NotifyRetryBase      time.Duration `envconfig:"NOTIFY_RETRY_BASE" default:"1s"`
	NotifyAttemptTimeout time.Duration `envconfig:"NOTIFY_ATTEMPT_TIMEOUT" default:"5s"`
	NotifyRetention      time.Duration `envconfig:"NOTIFY_RETENTION" default:"1h"`

	ExportMaxPageSize int `envconfig:"EXPORT_MAX_PAGE_SIZE" default:"1000"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*App, error) {
	if err := godotenv.Load(); err == nil {
		log.Println("config: loaded .env")
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.MailTransport = strings.ToLower(strings.TrimSpace(cfg.MailTransport))

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	log.Printf("config: env=%s addr=%s mail=%s redis=%t rabbit=%t sweep=%t",
		cfg.AppEnv, cfg.HTTPAddr, cfg.MailTransport, cfg.RedisURL != "", cfg.RabbitURL != "", cfg.SweepEnabled)

	return &cfg, nil
}

func validateConfig(cfg *App) error {
	if cfg.StaleThresholdHours <= 0 {
		return fmt.Errorf("STALE_THRESHOLD_HOURS must be > 0")
	}
	if cfg.NotifyMaxAttempts <= 0 {
		return fmt.Errorf("NOTIFY_MAX_ATTEMPTS must be > 0")
	}
	if cfg.NotifyRetryBase <= 0 {
		return fmt.Errorf("NOTIFY_RETRY_BASE must be > 0")
	}
	if cfg.NotifyAttemptTimeout <= 0 {
		return fmt.Errorf("NOTIFY_ATTEMPT_TIMEOUT must be > 0")
	}
	if cfg.NotifyRetention <= 0 {
		return fmt.Errorf("NOTIFY_RETENTION must be > 0")
	}
	if cfg.ExportMaxPageSize <= 0 {
		return fmt.Errorf("EXPORT_MAX_PAGE_SIZE must be > 0")
	}
	if cfg.MailTransport != "log" && cfg.MailTransport != "smtp" {
		return fmt.Errorf("MAIL_TRANSPORT must be one of: log, smtp")
	}
	if strings.TrimSpace(cfg.OpsEmail) == "" {
		return fmt.Errorf("OPS_EMAIL must not be empty")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.InternalToken, defaultInternalToken) {
			return fmt.Errorf("in prod/release INTERNAL_TOKEN must be set and not default")
		}
	}

	return nil
}

// IsProd reports whether the app runs in a production-like environment.
func (a *App) IsProd() bool {
	return isProdLike(a.AppEnv)
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
