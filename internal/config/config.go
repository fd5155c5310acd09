package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"anoa.com/localswap/pkg/database"
	"anoa.com/localswap/pkg/push"
	"anoa.com/localswap/pkg/storage"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string

	LogLevel  string
	LogFormat string

	Database database.Config
	RedisURL string

	JWTSecret  string
	CronSecret string

	JobsEnabled bool

	MeiliSearchHost string
	MeiliMasterKey  string

	Storage storage.Config

	Push        push.Config
	PushTimeout time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	RateLimitMessage time.Duration
	MatchConcurrency int
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		Database: database.Config{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASS"),
			Name:     getEnv("DB_NAME", "localswap"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		CronSecret: os.Getenv("CRON_SECRET"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		Storage: storage.Config{
			Driver:              getEnv("STORAGE_DRIVER", storage.DriverCloudinary),
			CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			MinIOEndpoint:       getEnv("MINIO_ENDPOINT", "localhost:9000"),
			MinIOAccessKey:      os.Getenv("MINIO_ACCESS_KEY"),
			MinIOSecretKey:      os.Getenv("MINIO_SECRET_KEY"),
			MinIOBucket:         getEnv("MINIO_BUCKET", "localswap"),
			MinIOPublicURL:      os.Getenv("MINIO_PUBLIC_URL"),
		},

		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
			Subject:         getEnv("VAPID_SUBJECT", "mailto:support@localswap.app"),
		},

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "localswap.events"),
	}

	var err error
	if cfg.Storage.MinIOUseSSL, err = parseBool(getEnv("MINIO_USE_SSL", "false")); err != nil {
		return nil, fmt.Errorf("invalid MINIO_USE_SSL: %w", err)
	}
	if cfg.JobsEnabled, err = parseBool(getEnv("JOBS_ENABLED", "true")); err != nil {
		return nil, fmt.Errorf("invalid JOBS_ENABLED: %w", err)
	}
	if cfg.PushTimeout, err = time.ParseDuration(getEnv("PUSH_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid PUSH_TIMEOUT: %w", err)
	}
	if cfg.RateLimitMessage, err = time.ParseDuration(getEnv("RATE_LIMIT_MESSAGE", "1s")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MESSAGE: %w", err)
	}
	if cfg.Push.RatePerSecond, err = strconv.ParseFloat(getEnv("PUSH_RATE_PER_SEC", "50"), 64); err != nil {
		return nil, fmt.Errorf("invalid PUSH_RATE_PER_SEC: %w", err)
	}
	if cfg.MatchConcurrency, err = strconv.Atoi(getEnv("MATCH_CONCURRENCY", "8")); err != nil {
		return nil, fmt.Errorf("invalid MATCH_CONCURRENCY: %w", err)
	}
	if cfg.Database.MaxOpenConns, err = strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25")); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns / 2
	cfg.Database.Debug = cfg.AppEnv == "development" && cfg.LogLevel == "debug"

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "dev-secret"
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseBool(s string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(s))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
