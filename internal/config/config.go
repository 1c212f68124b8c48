package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"`
	ServerAddr string `envconfig:"SERVER_ADDR" default:":8080"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBDriver    string `envconfig:"DB_DRIVER" default:"pgx"`

	JWTSecret        string        `envconfig:"JWT_SECRET"`
	AccessTokenTTL   time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"30m"`
	RefreshTokenTTL  time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`
	TokenLeeway      time.Duration `envconfig:"TOKEN_LEEWAY" default:"30s"`
	RefreshSingleUse bool          `envconfig:"REFRESH_SINGLE_USE" default:"false"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"ledger_events"`

	ESURL      string `envconfig:"ES_URL"`
	ESUser     string `envconfig:"ES_USER"`
	ESPassword string `envconfig:"ES_PASSWORD"`
	ESIndex    string `envconfig:"ES_INDEX" default:"transactions"`

	CORSOrigins    string `envconfig:"CORS_ORIGINS" default:"*"`
	LoginRateLimit int    `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info("notice: .env file not found, using system environment", "error", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if err := MustNonEmpty(c.JWTSecret, "JWT_SECRET"); err != nil {
		errs = append(errs, err)
	}
	if err := MustNonEmpty(c.DatabaseURL, "DATABASE_URL"); err != nil {
		errs = append(errs, err)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.TokenLeeway < 0 {
		errs = append(errs, errors.New("TOKEN_LEEWAY must not be negative"))
	}
	if c.RefreshSingleUse && c.RedisAddr == "" {
		errs = append(errs, errors.New("REFRESH_SINGLE_USE requires REDIS_ADDR"))
	}
	switch c.DBDriver {
	case "pgx", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

func (c *Config) Brokers() []string { return CSV(c.KafkaBrokers) }

func (c *Config) AllowedOrigins() []string { return CSV(c.CORSOrigins) }

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func MustNonEmpty(value, envName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env %s", envName)
	}
	return nil
}
