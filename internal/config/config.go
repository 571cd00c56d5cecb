package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DB     DBConfig
	MinIO  MinIOConfig
	JWT    JWTConfig
	Server ServerConfig
	Ledger LedgerConfig
	Batch  BatchConfig
	Stats  StatsConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Enabled   bool
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

type LedgerConfig struct {
	ExportInterval time.Duration
}

type BatchConfig struct {
	Concurrency int
	ItemTimeout time.Duration
}

type StatsConfig struct {
	TrendMonths int
}

func Load() *Config {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "maimang"),
			Password: getEnv("DB_PASSWORD", "maimang_secret"),
			Name:     getEnv("DB_NAME", "maimang"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "maimang"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "maimang_secret"),
			Bucket:    getEnv("MINIO_BUCKET", "maimang"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
			Enabled:   getEnvAsBool("MINIO_ENABLED", false),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000"),
		},
		Ledger: LedgerConfig{
			ExportInterval: getEnvAsDuration("LEDGER_EXPORT_INTERVAL", 1*time.Hour),
		},
		Batch: BatchConfig{
			Concurrency: getEnvAsInt("BATCH_CONCURRENCY", 8),
			ItemTimeout: getEnvAsDuration("BATCH_ITEM_TIMEOUT", 5*time.Second),
		},
		Stats: StatsConfig{
			TrendMonths: getEnvAsInt("STATS_TREND_MONTHS", 6),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
