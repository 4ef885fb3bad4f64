package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Queue    QueueConfig
	S3       S3Config
	Webhook  WebhookConfig
	Admin    AdminConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

// RedisConfig holds the queue backend connection settings
type RedisConfig struct {
	URL string
}

// QueueConfig holds message queue settings shared by the
// ingestion service (producer) and the parser worker (consumer)
type QueueConfig struct {
	Name           string
	DequeueTimeout time.Duration
	ErrorCooldown  time.Duration
}

// S3Config holds media storage settings
type S3Config struct {
	Bucket        string
	Region        string
	PublicBaseURL string
}

// WebhookConfig holds the WhatsApp webhook verification secret
type WebhookConfig struct {
	VerifyToken string
}

// AdminConfig holds admin authentication settings
type AdminConfig struct {
	Password      string
	JWTSigningKey string
	JWTExpiration time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics-related configuration
type MetricsConfig struct {
	Prefix string
}

// Load loads the application configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "3001"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "genmarket_db"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnv("DB_LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Queue: QueueConfig{
			Name:           getEnv("MESSAGE_QUEUE_NAME", "whatsapp_messages"),
			DequeueTimeout: getEnvAsDuration("QUEUE_DEQUEUE_TIMEOUT", 5*time.Second),
			ErrorCooldown:  getEnvAsDuration("QUEUE_ERROR_COOLDOWN", 5*time.Second),
		},
		S3: S3Config{
			Bucket:        getEnv("AWS_S3_BUCKET", "genmarket-media"),
			Region:        getEnv("AWS_REGION", "us-east-1"),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Webhook: WebhookConfig{
			VerifyToken: getEnv("WHATSAPP_WEBHOOK_VERIFY_TOKEN", ""),
		},
		Admin: AdminConfig{
			Password:      getEnv("ADMIN_PASSWORD", "admin123"),
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", "genmarketsecretkey"),
			JWTExpiration: getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "genmarket"),
		},
	}, nil
}

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
