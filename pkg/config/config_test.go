package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Equal(t, time.Hour, cfg.SessionWindow)
	assert.Equal(t, 20, cfg.MinTrainingSamples)
	assert.Equal(t, 50, cfg.RetrainEvery)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("CAREFLOW_HTTP_ADDR", "127.0.0.1:9090")
	t.Setenv("CAREFLOW_SESSION_WINDOW", "30m")
	t.Setenv("CAREFLOW_MIN_TRAINING_SAMPLES", "40")
	t.Setenv("CAREFLOW_RETRAIN_EVERY", "100")
	t.Setenv("CAREFLOW_MODEL_CACHE_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.AppEnv)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Minute, cfg.SessionWindow)
	assert.Equal(t, 40, cfg.MinTrainingSamples)
	assert.Equal(t, 100, cfg.RetrainEvery)
	assert.Equal(t, 5*time.Minute, cfg.ModelCacheTTL)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CAREFLOW_MIN_TRAINING_SAMPLES", "plenty")
	t.Setenv("CAREFLOW_SESSION_WINDOW", "an hour")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.MinTrainingSamples)
	assert.Equal(t, time.Hour, cfg.SessionWindow)
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("CAREFLOW_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CAREFLOW_JWT_SECRET", "prod-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
