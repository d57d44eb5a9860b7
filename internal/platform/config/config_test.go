package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/punchclock",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
		LateAfter:          "09:15",
		HalfDayBelowHours:  4,
		TrendWindowDays:    7,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestValidateRequiresJWTSecretInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestValidateRejectsBadLateThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.LateAfter = "quarter past nine"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unparsable late threshold")
	}
}

func TestValidateRejectsHalfDayOutOfRange(t *testing.T) {
	for _, hours := range []float64{0, -1, 24} {
		cfg := validConfig()
		cfg.HalfDayBelowHours = hours
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected error for half-day hours %v", hours)
		}
	}
}
