package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	require.NotNil(t, cfg)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "public", cfg.Database.Schema)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 15, cfg.JWT.AccessExpiry)
	assert.Equal(t, 7, cfg.JWT.RefreshExpiry)
	assert.Equal(t, 72*time.Hour, cfg.Cart.TTL)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "orders@freshmart.local", cfg.Mail.From)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("CART_TTL_HOURS", "24")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")

	cfg := Load()
	require.NotNil(t, cfg)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 24*time.Hour, cfg.Cart.TTL)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
}
