package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Environment string `env:"ENVIRONMENT,default=dev"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	// HTTP
	Addr             string `env:"ADDR,default=:3000"`
	CORSOrigins      string `env:"CORS_ORIGINS"`
	CaptureRateLimit int    `env:"CAPTURE_RATE_LIMIT,default=20"`

	// DB
	DatabaseURL    string `env:"DATABASE_URL"`
	DatabaseDriver string `env:"DATABASE_DRIVER,default=postgres"`
	LogSQL         bool   `env:"DB_LOG_SQL,default=false"`

	// Verification
	AppURL        string        `env:"APP_URL"`
	TokenTTL      time.Duration `env:"TOKEN_TTL,default=24h"`
	ResendAPIKey  string        `env:"RESEND_API_KEY"`
	ResendBaseURL string        `env:"RESEND_BASE_URL,default=https://api.resend.com"`
	EmailFrom     string        `env:"EMAIL_FROM,default=LocalSphere <onboarding@resend.dev>"`
	EmailTimeout  time.Duration `env:"EMAIL_TIMEOUT,default=10s"`

	// Variant routing
	VariantCookieTTL time.Duration `env:"VARIANT_COOKIE_TTL,default=720h"`
	SessionCookieTTL time.Duration `env:"SESSION_COOKIE_TTL,default=24h"`

	// Admin
	AdminSecret string `env:"ADMIN_SECRET"`
	AdminIssuer string `env:"ADMIN_ISSUER,default=localsphere-site"`

	Events EventsConfig `env:",prefix=EVENTS_"`
}

type EventsConfig struct {
	Sinks             string        `env:"SINKS,default=log"`
	Timeout           time.Duration `env:"TIMEOUT,default=3s"`
	NATSURL           string        `env:"NATS_URL"`
	NATSSubjectPrefix string        `env:"NATS_SUBJECT_PREFIX,default=localsphere.events"`
	KafkaBrokers      string        `env:"KAFKA_BROKERS"`
	KafkaTopic        string        `env:"KAFKA_TOPIC,default=localsphere-events"`
	PostHogAPIKey     string        `env:"POSTHOG_API_KEY"`
	PostHogHost       string        `env:"POSTHOG_HOST,default=https://us.i.posthog.com"`
}

// Load reads an optional .env file and then the process environment.
// Missing credentials are not fatal here: handlers report them per request.
func Load(ctx context.Context) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

func LoadFrom(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &cfg, l); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.CaptureRateLimit <= 0 {
		slog.Warn("config: invalid capture rate limit, defaulting", "value", cfg.CaptureRateLimit)
		cfg.CaptureRateLimit = 20
	}
	if cfg.TokenTTL <= 0 {
		slog.Warn("config: invalid token ttl, defaulting", "value", cfg.TokenTTL)
		cfg.TokenTTL = 24 * time.Hour
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	return cfg, nil
}

func (c Config) Production() bool { return strings.EqualFold(c.Environment, "production") }

// SplitList splits a comma separated env value, dropping blanks.
func SplitList(v string) []string {
	out := []string{}
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
