package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/shopvio/shop-session-service/internal/app"
	"github.com/shopvio/shop-session-service/internal/config"
	"github.com/shopvio/shop-session-service/internal/domain"
	"github.com/shopvio/shop-session-service/internal/health"
	"github.com/shopvio/shop-session-service/internal/http/handler"
	"github.com/shopvio/shop-session-service/internal/http/router"
	"github.com/shopvio/shop-session-service/internal/observability"
	"github.com/shopvio/shop-session-service/internal/repository"
	"github.com/shopvio/shop-session-service/internal/security"
	"github.com/shopvio/shop-session-service/internal/service"
)

func main() {
	root := &cobra.Command{
		Use:          "shop-session-service",
		Short:        "Session and token lifecycle service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(slog.LevelInfo)
	slog.SetDefault(logger)

	obs, err := observability.InitRuntime(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&domain.Role{}, &domain.User{}, &domain.Session{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	var redisClient *redis.Client
	var guard *service.RedisLoginGuard
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		policy := service.DefaultLoginGuardPolicy()
		policy.FreeAttempts = cfg.LoginGuardFreeAttempts
		policy.BaseDelay = cfg.LoginGuardBaseDelay
		policy.MaxDelay = cfg.LoginGuardMaxDelay
		guard = service.NewRedisLoginGuard(redisClient, "login_guard", policy)
	}

	sessionRepo := repository.NewSessionRepository(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)

	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTSecret)
	hasher := security.NewBcryptHasher(cfg.BcryptCost)

	tokenSvc := service.NewTokenService(jwtMgr, sessionRepo, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.MaxSessionsPerUser)
	authSvc := service.NewAuthService(userRepo, roleRepo, sessionRepo, hasher, jwtMgr, tokenSvc, cfg.CheckRevoked)
	userSvc := service.NewUserService(userRepo, roleRepo, hasher)
	sessionSvc := service.NewSessionService(sessionRepo)
	rbacSvc := service.NewRBACService()

	readiness := health.NewProbeRunner(2 * time.Second)
	readiness.Register("postgres", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if redisClient != nil {
		readiness.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	mux := router.NewRouter(router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc, userSvc, guard),
		UserHandler:      handler.NewUserHandler(authSvc, userSvc, sessionSvc),
		JWTManager:       jwtMgr,
		RBACService:      rbacSvc,
		Logger:           logger,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		AuthRateLimitRPM: cfg.AuthRateLimitRPM,
		APIRateLimitRPM:  cfg.APIRateLimitRPM,
		Readiness:        readiness,
		EnableOTelHTTP:   cfg.OTELTracesEnabled,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	a := app.New(cfg, logger, server, sessionSvc, obs)
	return a.Run(ctx)
}
