package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv изолирует тест от переменных окружения хоста
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RESOURCE_ID", "AWS_REGION", "METRIC_WINDOW", "METRIC_PERIOD", "CLOUDWATCH_ENDPOINT",
		"SERVER_PORT", "DEBUG", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "STATS_RETENTION_HOURS",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "i-0293dc76e816f7b99", cfg.ResourceID)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 3*time.Hour, cfg.Window)
	assert.Equal(t, 5*time.Minute, cfg.Period)
	assert.Equal(t, "5000", cfg.Server.Port)
	assert.False(t, cfg.Server.Debug)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Redis.StatsRetention)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
resource_id: i-abc
region: eu-west-1
window: 1h
period: 1m
cloudwatch_endpoint: http://localhost:4566
server:
  port: "8080"
  debug: true
redis:
  addr: localhost:6379
  db: 2
  stats_retention: 2h
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "i-abc", cfg.ResourceID)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, time.Hour, cfg.Window)
	assert.Equal(t, time.Minute, cfg.Period)
	assert.Equal(t, "http://localhost:4566", cfg.CloudWatchEndpoint)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 2*time.Hour, cfg.Redis.StatsRetention)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "resource_id: i-file\nregion: eu-west-1\n")

	t.Setenv("RESOURCE_ID", "i-env")
	t.Setenv("METRIC_WINDOW", "90m")
	t.Setenv("DEBUG", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("STATS_RETENTION_HOURS", "6")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "i-env", cfg.ResourceID)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, 90*time.Minute, cfg.Window)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 6*time.Hour, cfg.Redis.StatsRetention)
}

func TestLoad_InvalidEnvValuesKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("METRIC_PERIOD", "five minutes")
	t.Setenv("REDIS_DB", "x")
	t.Setenv("DEBUG", "maybe")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Period)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.False(t, cfg.Server.Debug)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "window: [1h"))
		assert.Error(t, err)
	})

	t.Run("empty resource id", func(t *testing.T) {
		_, err := Load(writeConfig(t, `resource_id: ""`))
		assert.ErrorContains(t, err, "ResourceID")
	})

	t.Run("period longer than window", func(t *testing.T) {
		_, err := Load(writeConfig(t, "window: 5m\nperiod: 1h\n"))
		assert.ErrorContains(t, err, "Period")
	})

	t.Run("fractional period", func(t *testing.T) {
		t.Setenv("METRIC_PERIOD", "1500ms")
		_, err := Load("")
		assert.ErrorContains(t, err, "whole_seconds")
	})

	t.Run("fractional period in file", func(t *testing.T) {
		_, err := Load(writeConfig(t, "period: 90.5s\n"))
		assert.ErrorContains(t, err, "Period")
	})

	t.Run("bad redis address", func(t *testing.T) {
		t.Setenv("REDIS_ADDR", "not an address")
		_, err := Load("")
		assert.ErrorContains(t, err, "Addr")
	})
}
