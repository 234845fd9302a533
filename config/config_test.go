package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("POSTGRESQL_URI", "postgres://localhost/tasks")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "*", cfg.CORSOrigins)
	assert.Equal(t, "tasks/events", cfg.MQTTTopic)
	assert.Empty(t, cfg.MQTTURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("POSTGRESQL_URI", "tasks.db")
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestValidate(t *testing.T) {
	cfg := &Config{DatabaseDriver: "mysql"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET must be set")
	assert.Contains(t, err.Error(), "POSTGRESQL_URI must be set")
	assert.Contains(t, err.Error(), `unsupported DATABASE_DRIVER "mysql"`)
	assert.Contains(t, err.Error(), "TOKEN_TTL must be positive")
}
