package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                string
	DatabaseURL         string
	JWTSecret           string
	FrontendDir         string
	Environment         string
	MigrationsDir       string
	AllowSelfSignup     bool
	SeedManagerName     string
	SeedManagerEmail    string
	SeedManagerPassword string
	SeedDemoData        bool
	EmailFrom           string
	EmailEnabled        bool
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPassword        string
	SMTPUseTLS          bool
	RunMigrations       bool
	RunSeed             bool
	MaxBodyBytes        int64
	RateLimitPerMinute  int
	LateAfter           string
	HalfDayBelowHours   float64
	ReconcileInterval   time.Duration
	TrendWindowDays     int
	MetricsEnabled      bool
}

func Load() Config {
	return Config{
		Addr:                getEnv("APP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		FrontendDir:         getEnv("FRONTEND_DIR", "frontend/dist"),
		Environment:         getEnv("APP_ENV", "development"),
		MigrationsDir:       getEnv("MIGRATIONS_DIR", "migrations"),
		AllowSelfSignup:     getEnvBool("ALLOW_SELF_SIGNUP", true),
		SeedManagerName:     getEnv("SEED_MANAGER_NAME", "Default Manager"),
		SeedManagerEmail:    getEnv("SEED_MANAGER_EMAIL", ""),
		SeedManagerPassword: getEnv("SEED_MANAGER_PASSWORD", ""),
		SeedDemoData:        getEnvBool("SEED_DEMO_DATA", false),
		EmailFrom:           getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled:        getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUser:            getEnv("SMTP_USER", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:          getEnvBool("SMTP_USE_TLS", true),
		RunMigrations:       getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:             getEnvBool("RUN_SEED", true),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		LateAfter:           getEnv("WORKDAY_LATE_AFTER", "09:15"),
		HalfDayBelowHours:   getEnvFloat("HALF_DAY_BELOW_HOURS", 4),
		ReconcileInterval:   getEnvDuration("RECONCILE_INTERVAL", 24*time.Hour),
		TrendWindowDays:     getEnvInt("TREND_WINDOW_DAYS", 7),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
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

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
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

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedManagerPassword) == "" {
			return fmt.Errorf("SEED_MANAGER_PASSWORD must be changed or RUN_SEED disabled in production")
		}
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
	if _, err := time.Parse("15:04", c.LateAfter); err != nil {
		return fmt.Errorf("WORKDAY_LATE_AFTER must be an HH:MM clock time")
	}
	if c.HalfDayBelowHours <= 0 || c.HalfDayBelowHours >= 24 {
		return fmt.Errorf("HALF_DAY_BELOW_HOURS must be between 0 and 24")
	}
	if c.TrendWindowDays <= 0 {
		return fmt.Errorf("TREND_WINDOW_DAYS must be positive")
	}
	return nil
}
