package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staff-portal/internal/audit"
	"staff-portal/internal/auth"
	"staff-portal/internal/config"
	"staff-portal/internal/httpapi"
	"staff-portal/internal/identity"
	"staff-portal/internal/rbac"
	"staff-portal/pkg/logger"
	"staff-portal/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Env file is a local-dev convenience; real deployments set env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	var limiter rbac.Limiter
	switch cfg.RateLimit.Backend {
	case config.RateLimitBackendRedis:
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		limiter = rbac.NewRedisSlidingWindow(rdb, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	default:
		limiter = rbac.NewSlidingWindow(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	}

	store := identity.NewRepository(db)
	policy := rbac.NewEngine(cfg.Org.EmailDomain)
	trail := audit.NewService(audit.NewMemoryRepo())
	authService := auth.NewService(store, tokens, policy, trail)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		Handlers: httpapi.Handlers{Auth: authService, Policy: policy, Store: store},
		AuthMW:   auth.RequireAuthentication(tokens, store),
		Policy:   policy,
		Store:    store,
		Limiter:  limiter,
		DB:       db,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "rate_limit_backend", cfg.RateLimit.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
