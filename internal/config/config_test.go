package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/ledger?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 30*time.Second, cfg.TokenLeeway)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.False(t, cfg.RefreshSingleUse)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 10, cfg.LoginRateLimit)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := Config{
		JWTSecret:       "s",
		DatabaseURL:     "dsn",
		DBDriver:        "pgx",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "single use without redis", mutate: func(c *Config) { c.RefreshSingleUse = true }, msg: "REDIS_ADDR"},
		{name: "bad driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, msg: "DB_DRIVER"},
		{name: "negative leeway", mutate: func(c *Config) { c.TokenLeeway = -time.Second }, msg: "TOKEN_LEEWAY"},
		{name: "zero ttl", mutate: func(c *Config) { c.AccessTokenTTL = 0 }, msg: "ttl"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.msg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092 , ,b:9092"))
}
