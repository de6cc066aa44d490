package config_test

import (
	"testing"
	"time"

	"civiceye/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "civic")
	t.Setenv("DB_NAME", "civiceye")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("OBJECT_STORE_DRIVER", "")
	t.Setenv("EVENTS_BROKER", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("ALLOWED_ORIGINS", "")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "disk", cfg.Storage.Driver)
	assert.Equal(t, "redis", cfg.Events.Broker)
	assert.Equal(t, 72*time.Hour, cfg.Auth.TokenTTL)
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.Equal(t, "host=localhost user=civic password= dbname=civiceye port=5432 sslmode=disable", cfg.Database.DSN())
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_GCSNeedsBucket(t *testing.T) {
	setRequired(t)
	t.Setenv("OBJECT_STORE_DRIVER", "gcs")
	t.Setenv("GCS_BUCKET", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_RabbitMQNeedsURL(t *testing.T) {
	setRequired(t)
	t.Setenv("EVENTS_BROKER", "rabbitmq")
	t.Setenv("RABBITMQ_URL", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("AI_TIMEOUT", "soon")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
}

func TestLoad_AllowedOrigins(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", " https://dash.civiceye.in, ,http://localhost:5173 ")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://dash.civiceye.in", "http://localhost:5173"}, cfg.Server.AllowedOrigins)
}
