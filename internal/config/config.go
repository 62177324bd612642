package config

import (
	"os"
	"strconv"
	"time"
	_ "time/tzdata"
)

const (
	// SettingsBackendFile keeps settings in a JSON file under the data directory.
	SettingsBackendFile = "file"
	// SettingsBackendPostgres keeps settings in a single-row PostgreSQL table.
	SettingsBackendPostgres = "postgres"

	// BlobBackendLocal stores extracted texts on the local filesystem.
	BlobBackendLocal = "local"
	// BlobBackendMinIO stores extracted texts in an S3-compatible bucket.
	BlobBackendMinIO = "minio"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	ConnMaxIdleSec     int
	PingTimeoutSec     int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects where settings and extracted document texts live.
type StorageConfig struct {
	DataDir         string
	SettingsBackend string
	BlobBackend     string
}

// OpenAIConfig holds the model provider credential and request tuning.
// APIKey may be empty; requests needing it then fail with a configuration error.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	ImageModel   string
	ImageSize    string
	ChatModel    string
	MaxTokens    int
	Temperature  float64
	TimeoutSec   int
	ExcerptChars int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	TZLocation  string
	BodyLimitMB int
	Storage     StorageConfig
	Database    DatabaseConfig
	MinIO       MinIOConfig
	OpenAI      OpenAIConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		TZLocation:  getEnv("TZ_LOCATION", "UTC"),
		BodyLimitMB: getEnvInt("BODY_LIMIT_MB", 25),
		Storage: StorageConfig{
			DataDir:         getEnv("DATA_DIR", "data"),
			SettingsBackend: getEnv("SETTINGS_BACKEND", SettingsBackendFile),
			BlobBackend:     getEnv("BLOB_BACKEND", BlobBackendLocal),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			// One settings row; a handful of connections covers concurrent requests.
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 4),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 1800),
			ConnMaxIdleSec:     getEnvInt("DB_CONN_MAX_IDLE_SEC", 300),
			PingTimeoutSec:     getEnvInt("DB_PING_TIMEOUT_SEC", 5),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		OpenAI: OpenAIConfig{
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			BaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			ImageModel:   getEnv("OPENAI_IMAGE_MODEL", "gpt-image-1"),
			ImageSize:    getEnv("OPENAI_IMAGE_SIZE", "auto"),
			ChatModel:    getEnv("OPENAI_CHAT_MODEL", "gpt-5.1"),
			MaxTokens:    getEnvInt("OPENAI_MAX_TOKENS", 600),
			Temperature:  getEnvFloat("OPENAI_TEMPERATURE", 0.4),
			TimeoutSec:   getEnvInt("OPENAI_TIMEOUT_SEC", 120),
			ExcerptChars: getEnvInt("ANALYSIS_EXCERPT_CHARS", 3000),
		},
	}
}

// Location resolves TZLocation, falling back to UTC when it cannot be loaded.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TZLocation)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Timeout returns the upstream request timeout.
func (c OpenAIConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// PingTimeout bounds the connectivity check made when the pool is opened.
func (c DatabaseConfig) PingTimeout() time.Duration {
	if c.PingTimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.PingTimeoutSec) * time.Second
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
