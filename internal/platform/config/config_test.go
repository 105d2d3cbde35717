package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/solarops",
		JWTSecret:          "dev-secret",
		Environment:        "development",
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 120,
		PayPeriodReference: "2024-12-14",
		PayPeriodTimezone:  "America/Los_Angeles",
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ADDR", "")
	t.Setenv("PAY_PERIOD_REFERENCE_DATE", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	if cfg.Addr != ":8080" || cfg.PayPeriodReference != "2024-12-14" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Fatalf("expected 10m cache ttl, got %s", cfg.CacheTTL)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("expected an unparsable int to fall back, got %d", cfg.RateLimitPerMinute)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "3s")
	t.Setenv("EMAIL_ENABLED", "true")

	cfg := Load()
	if cfg.RedisAddr != "localhost:6379" || cfg.ShutdownGracePeriod != 3*time.Second || !cfg.EmailEnabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestReferenceDateUsesTimezone(t *testing.T) {
	cfg := validConfig()
	ref, err := cfg.ReferenceDate()
	if err != nil {
		t.Fatalf("reference date: %v", err)
	}
	if ref.Location().String() != "America/Los_Angeles" || ref.Hour() != 0 || ref.Day() != 14 {
		t.Fatalf("expected local midnight on the 14th, got %s", ref)
	}

	cfg.PayPeriodTimezone = "Not/AZone"
	if cfg.Location().String() != "UTC" {
		t.Fatalf("expected UTC fallback, got %s", cfg.Location())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no database", mutate: func(c *Config) { c.DatabaseURL = "" }, want: "DATABASE_URL"},
		{name: "no jwt secret", mutate: func(c *Config) { c.JWTSecret = " " }, want: "JWT_SECRET"},
		{name: "short secret in production", mutate: func(c *Config) {
			c.Environment = "production"
			c.DataEncryptionKey = "key"
		}, want: "32 characters"},
		{name: "production without encryption key", mutate: func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = strings.Repeat("s", 32)
		}, want: "DATA_ENCRYPTION_KEY"},
		{name: "bad timezone", mutate: func(c *Config) { c.PayPeriodTimezone = "Mars/Base" }, want: "PAY_PERIOD_TIMEZONE"},
		{name: "bad reference", mutate: func(c *Config) { c.PayPeriodReference = "12/14/2024" }, want: "PAY_PERIOD_REFERENCE_DATE"},
		{name: "tiny body limit", mutate: func(c *Config) { c.MaxBodyBytes = 10 }, want: "MAX_BODY_BYTES"},
		{name: "email without smtp", mutate: func(c *Config) { c.EmailEnabled = true }, want: "SMTP_HOST"},
		{name: "functions without token", mutate: func(c *Config) { c.FunctionsURL = "https://fn.example.com" }, want: "FUNCTIONS_TOKEN"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}
