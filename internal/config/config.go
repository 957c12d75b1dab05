package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultMaxUploadBytes caps uploaded spreadsheets at 5 MiB.
const DefaultMaxUploadBytes int64 = 5 << 20

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Uploads
	MaxUploadBytes int64

	// Stats cache. An empty RedisURL disables caching.
	RedisURL      string
	StatsCacheTTL time.Duration

	// Audit
	AuditWriteTimeout time.Duration

	// Metrics endpoint guard. An empty key leaves /metrics open.
	MetricsAPIKey string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "sheetdesk"),
		DBPassword: getEnv("DB_PASSWORD", "sheetdesk"),
		DBName:     getEnv("DB_NAME", "sheetdesk"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		RedisURL:      getEnv("REDIS_URL", ""),
		MetricsAPIKey: getEnv("METRICS_API_KEY", ""),
	}

	config.JWTExpirationDur = getDuration("JWT_EXPIRES_IN", 24*time.Hour)
	config.StatsCacheTTL = getDuration("STATS_CACHE_TTL", time.Minute)
	config.AuditWriteTimeout = getDuration("AUDIT_WRITE_TIMEOUT", 5*time.Second)

	maxStr := getEnv("MAX_UPLOAD_BYTES", "")
	config.MaxUploadBytes = DefaultMaxUploadBytes
	if maxStr != "" {
		n, err := strconv.ParseInt(maxStr, 10, 64)
		if err != nil || n <= 0 {
			log.Printf("Warning: invalid MAX_UPLOAD_BYTES value '%s', falling back to %d\n", maxStr, DefaultMaxUploadBytes)
		} else {
			config.MaxUploadBytes = n
		}
	}

	return config, nil
}

// getDuration parses a duration variable, falling back to def on absence or parse failure.
func getDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, def)
		return def
	}
	return d
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
