package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                string
	DatabaseURL         string
	JWTSecret           string
	DataEncryptionKey   string
	FrontendDir         string
	Environment         string
	SeedAdminEmail      string
	SeedAdminPassword   string
	RunMigrations       bool
	RunSeed             bool
	MaxBodyBytes        int64
	MaxUploadBytes      int64
	RateLimitPerMinute  int
	MetricsEnabled      bool
	PayPeriodReference  string
	PayPeriodTimezone   string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	CacheTTL            time.Duration
	StorageDir          string
	StoragePublicURL    string
	FunctionsURL        string
	FunctionsToken      string
	MapsAPIKey          string
	PayrollWarmSchedule string
	EmailFrom           string
	EmailEnabled        bool
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPassword        string
	SMTPUseTLS          bool
	ShutdownGracePeriod time.Duration
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	return Config{
		Addr:                getEnv("APP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		DataEncryptionKey:   getEnv("DATA_ENCRYPTION_KEY", ""),
		FrontendDir:         getEnv("FRONTEND_DIR", "frontend/dist"),
		Environment:         getEnv("APP_ENV", "development"),
		SeedAdminEmail:      getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:   getEnv("SEED_ADMIN_PASSWORD", ""),
		RunMigrations:       getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:             getEnvBool("RUN_SEED", true),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_BYTES", 25<<20)),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
		PayPeriodReference:  getEnv("PAY_PERIOD_REFERENCE_DATE", "2024-12-14"),
		PayPeriodTimezone:   getEnv("PAY_PERIOD_TIMEZONE", "America/Los_Angeles"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		CacheTTL:            getEnvDuration("CACHE_TTL", 10*time.Minute),
		StorageDir:          getEnv("STORAGE_DIR", "storage"),
		StoragePublicURL:    getEnv("STORAGE_PUBLIC_URL", "/files"),
		FunctionsURL:        getEnv("FUNCTIONS_URL", ""),
		FunctionsToken:      getEnv("FUNCTIONS_TOKEN", ""),
		MapsAPIKey:          getEnv("MAPS_API_KEY", ""),
		PayrollWarmSchedule: getEnv("PAYROLL_WARM_SCHEDULE", "0 5 * * *"),
		EmailFrom:           getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled:        getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUser:            getEnv("SMTP_USER", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:          getEnvBool("SMTP_USE_TLS", true),
		ShutdownGracePeriod: getEnvDuration("SHUTDOWN_GRACE_PERIOD", 15*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// Location resolves PayPeriodTimezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.PayPeriodTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ReferenceDate is the pay-period anchor at midnight in the pay-period timezone.
func (c Config) ReferenceDate() (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(c.PayPeriodReference), c.Location())
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for bank details at rest")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if _, err := time.LoadLocation(c.PayPeriodTimezone); err != nil {
		return fmt.Errorf("PAY_PERIOD_TIMEZONE is invalid: %w", err)
	}
	if _, err := c.ReferenceDate(); err != nil {
		return fmt.Errorf("PAY_PERIOD_REFERENCE_DATE must be YYYY-MM-DD: %w", err)
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	if c.FunctionsURL != "" && c.FunctionsToken == "" {
		return fmt.Errorf("FUNCTIONS_TOKEN must be set when FUNCTIONS_URL is configured")
	}
	return nil
}
