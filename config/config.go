package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env  string `envconfig:"APP_ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	JWTSecret       string        `envconfig:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `envconfig:"JWT_ACCESS_TTL" default:"2h"`
	RefreshTokenTTL time.Duration `envconfig:"JWT_REFRESH_TTL" default:"168h"`

	FrontendURL string   `envconfig:"FRONTEND_URL"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS"`

	// Timezone used for "open now" checks and analytics periods.
	Timezone string `envconfig:"TZ" default:"Europe/Amsterdam"`

	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"100"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	SearchCandidateCap int           `envconfig:"SEARCH_CANDIDATE_CAP" default:"1000"`
	SearchCacheTTL     time.Duration `envconfig:"SEARCH_CACHE_TTL" default:"60s"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"salontime.events"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	TrendingSchedule string `envconfig:"TRENDING_CRON" default:"@every 1h"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@salontime.app"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
}

func LoadEnv() error {
	// .env is only present in local development; in production the
	// variables are set directly.
	_ = godotenv.Load()
	return nil
}

// Load reads the typed configuration from the environment.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TZ %q: %w", c.Timezone, err)
	}
	return &c, nil
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AllowedOrigins merges FRONTEND_URL into the CORS origin list.
func (c *Config) AllowedOrigins() []string {
	origins := make([]string, 0, len(c.CORSOrigins)+1)
	if c.FrontendURL != "" {
		origins = append(origins, strings.TrimRight(c.FrontendURL, "/"))
	}
	for _, o := range c.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, strings.TrimRight(o, "/"))
		}
	}
	if len(origins) == 0 {
		origins = append(origins, "http://localhost:3000")
	}
	return origins
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ValidateEnv checks that critical environment variables are set.
// Returns an error if any critical variable is missing.
func ValidateEnv() error {
	var missing []string

	if os.Getenv("JWT_SECRET") == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if os.Getenv("DATABASE_URL") == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}

	if os.Getenv("REDIS_ADDR") == "" {
		slog.Warn("REDIS_ADDR not set - search results will not be cached")
	}
	if os.Getenv("AMQP_URL") == "" {
		slog.Warn("AMQP_URL not set - domain events will be dropped")
	}
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		slog.Warn("OTEL_EXPORTER_OTLP_ENDPOINT not set - traces will not be exported")
	}
	if os.Getenv("FRONTEND_URL") == "" && os.Getenv("CORS_ORIGINS") == "" {
		slog.Warn("FRONTEND_URL not set - CORS may not work correctly")
	}
	if os.Getenv("ADMIN_PASSWORD") == "" {
		slog.Warn("ADMIN_PASSWORD not set - a random password is generated for the default admin")
	}

	return nil
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
