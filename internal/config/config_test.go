package config

import (
	"strings"
	"testing"
	"time"
)

func validTestConfig() Config {
	return Config{
		HTTPAddr:           ":8080",
		JWTSecret:          "0123456789abcdef0123456789abcdef",
		JWTIssuer:          "shop-session-service",
		AccessTokenTTL:     30 * time.Minute,
		RefreshTokenTTL:    720 * time.Hour,
		BcryptCost:         12,
		MaxSessionsPerUser: 3,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateShortJWTSecret(t *testing.T) {
	cfg := validTestConfig()
	cfg.JWTSecret = "too-short"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for short secret")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("error should name JWT_SECRET: %v", err)
	}
}

func TestValidateRefreshTTLMustExceedAccessTTL(t *testing.T) {
	cfg := validTestConfig()
	cfg.RefreshTokenTTL = cfg.AccessTokenTTL
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when refresh ttl does not exceed access ttl")
	}
}

func TestValidateJoinsAllErrors(t *testing.T) {
	cfg := validTestConfig()
	cfg.JWTSecret = ""
	cfg.AccessTokenTTL = 0
	cfg.MaxSessionsPerUser = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	msg := err.Error()
	for _, want := range []string{"JWT_SECRET", "ACCESS_TOKEN_TTL", "MAX_SESSIONS_PER_USER"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("joined error missing %s: %v", want, err)
		}
	}
}

func TestLoadAppliesDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("MAX_SESSIONS_PER_USER", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr default = %q", cfg.HTTPAddr)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("AccessTokenTTL = %v", cfg.AccessTokenTTL)
	}
	if cfg.MaxSessionsPerUser != 5 {
		t.Fatalf("MaxSessionsPerUser = %d", cfg.MaxSessionsPerUser)
	}
	if cfg.RefreshTokenTTL != 720*time.Hour {
		t.Fatalf("RefreshTokenTTL default = %v", cfg.RefreshTokenTTL)
	}
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected validation error without JWT_SECRET")
	}
}
