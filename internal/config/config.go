package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`

	// JWTSecret is the process-wide signing key. It is read-only after
	// startup; rotating it invalidates every issued access token.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	JWTIssuer string `mapstructure:"JWT_ISSUER"`

	AccessTokenTTL  time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	BcryptCost      int           `mapstructure:"BCRYPT_COST"`

	// MaxSessionsPerUser caps live sessions per user; 0 disables the cap.
	MaxSessionsPerUser int `mapstructure:"MAX_SESSIONS_PER_USER"`
	// CheckRevoked makes token resolution consult the session store on every
	// call so revocation takes effect immediately, at one store read per
	// request. Off, a revoked session's access token stays valid until its
	// natural expiry.
	CheckRevoked  bool          `mapstructure:"CHECK_REVOKED"`
	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`

	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	APIRateLimitRPM    int      `mapstructure:"API_RATE_LIMIT_RPM"`
	AuthRateLimitRPM   int      `mapstructure:"AUTH_RATE_LIMIT_RPM"`

	LoginGuardFreeAttempts int           `mapstructure:"LOGIN_GUARD_FREE_ATTEMPTS"`
	LoginGuardBaseDelay    time.Duration `mapstructure:"LOGIN_GUARD_BASE_DELAY"`
	LoginGuardMaxDelay     time.Duration `mapstructure:"LOGIN_GUARD_MAX_DELAY"`

	OTELServiceName           string        `mapstructure:"OTEL_SERVICE_NAME"`
	OTELEnvironment           string        `mapstructure:"OTEL_ENVIRONMENT"`
	OTELExporterOTLPEndpoint  string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELExporterOTLPInsecure  bool          `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTELMetricsEnabled        bool          `mapstructure:"OTEL_METRICS_ENABLED"`
	OTELTracesEnabled         bool          `mapstructure:"OTEL_TRACES_ENABLED"`
	OTELLogsEnabled           bool          `mapstructure:"OTEL_LOGS_ENABLED"`
	OTELMetricsExportInterval time.Duration `mapstructure:"OTEL_METRICS_EXPORT_INTERVAL"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Missing .env is ignored; env vars override file values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	// AutomaticEnv only surfaces keys known to viper; every key needs a
	// default for Unmarshal to see its env override.
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "shop-session-service")
	v.SetDefault("ACCESS_TOKEN_TTL", "30m")
	v.SetDefault("REFRESH_TOKEN_TTL", "720h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("MAX_SESSIONS_PER_USER", 3)
	v.SetDefault("CHECK_REVOKED", false)
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{})
	v.SetDefault("API_RATE_LIMIT_RPM", 600)
	v.SetDefault("AUTH_RATE_LIMIT_RPM", 60)
	v.SetDefault("LOGIN_GUARD_FREE_ATTEMPTS", 3)
	v.SetDefault("LOGIN_GUARD_BASE_DELAY", "2s")
	v.SetDefault("LOGIN_GUARD_MAX_DELAY", "5m")
	v.SetDefault("OTEL_SERVICE_NAME", "shop-session-service")
	v.SetDefault("OTEL_ENVIRONMENT", "development")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("OTEL_METRICS_ENABLED", false)
	v.SetDefault("OTEL_TRACES_ENABLED", false)
	v.SetDefault("OTEL_LOGS_ENABLED", false)
	v.SetDefault("OTEL_METRICS_EXPORT_INTERVAL", "30s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		recordConfigValidationEvent(context.Background(), cfg.OTELEnvironment, "error", "parse")
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		recordConfigValidationEvent(context.Background(), cfg.OTELEnvironment, "error", "validation")
		return nil, fmt.Errorf("validate config: %w", err)
	}
	recordConfigValidationEvent(context.Background(), cfg.OTELEnvironment, "success", "none")
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must exceed ACCESS_TOKEN_TTL"))
	}
	if c.MaxSessionsPerUser < 0 {
		errs = append(errs, errors.New("MAX_SESSIONS_PER_USER must not be negative"))
	}
	return errors.Join(errs...)
}
