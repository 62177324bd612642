package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("DATA_DIR", "/var/lib/treatviz")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_TEMPERATURE", "0.9")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "/var/lib/treatviz", cfg.Storage.DataDir)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.InDelta(t, 0.9, cfg.OpenAI.Temperature, 0.0001)
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"SETTINGS_BACKEND", "BLOB_BACKEND", "OPENAI_IMAGE_MODEL", "OPENAI_CHAT_MODEL", "ANALYSIS_EXCERPT_CHARS",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME_SEC", "DB_CONN_MAX_IDLE_SEC", "DB_PING_TIMEOUT_SEC"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, SettingsBackendFile, cfg.Storage.SettingsBackend)
	assert.Equal(t, BlobBackendLocal, cfg.Storage.BlobBackend)
	assert.Equal(t, "gpt-image-1", cfg.OpenAI.ImageModel)
	assert.Equal(t, "gpt-5.1", cfg.OpenAI.ChatModel)
	assert.Equal(t, 3000, cfg.OpenAI.ExcerptChars)
	assert.Equal(t, 600, cfg.OpenAI.MaxTokens)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	assert.Equal(t, 2, cfg.Database.MaxIdleConns)
	assert.Equal(t, 1800, cfg.Database.ConnMaxLifetimeSec)
	assert.Equal(t, 300, cfg.Database.ConnMaxIdleSec)
	assert.Equal(t, 5*time.Second, cfg.Database.PingTimeout())
}

func TestLocation(t *testing.T) {
	cfg := &AppConfig{TZLocation: "Europe/Prague"}
	assert.Equal(t, "Europe/Prague", cfg.Location().String())

	cfg.TZLocation = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestOpenAITimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, OpenAIConfig{TimeoutSec: 30}.Timeout())
	assert.Equal(t, 120*time.Second, OpenAIConfig{}.Timeout())
}

func TestDatabasePingTimeout(t *testing.T) {
	assert.Equal(t, 2*time.Second, DatabaseConfig{PingTimeoutSec: 2}.PingTimeout())
	assert.Equal(t, 5*time.Second, DatabaseConfig{}.PingTimeout())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvFloat(t *testing.T) {
	key := "TEST_FLOAT_VAR"

	os.Setenv(key, "0.25")
	assert.Equal(t, 0.25, getEnvFloat(key, 1))

	os.Setenv(key, "nope")
	assert.Equal(t, 1.0, getEnvFloat(key, 1))

	os.Unsetenv(key)
	assert.Equal(t, 1.0, getEnvFloat(key, 1))
}
