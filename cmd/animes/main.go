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

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/animedojo/anime-api/internal/animes"
	"github.com/animedojo/anime-api/internal/app"
	"github.com/animedojo/anime-api/internal/auth"
	"github.com/animedojo/anime-api/internal/observability"
	"github.com/animedojo/anime-api/internal/platform/cache"
	"github.com/animedojo/anime-api/internal/platform/db"
	"github.com/animedojo/anime-api/internal/rbac"
	"github.com/animedojo/anime-api/internal/shared"
	"github.com/animedojo/anime-api/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()
	var checkers []app.HealthChecker

	var dbpool *pgxpool.Pool
	if cfg.PGDSN != "" {
		if cfg.PGMigrate {
			if err := db.Migrate(cfg.PGDSN, logger); err != nil {
				logger.Error("migrate postgres", slog.Any("error", err))
				os.Exit(1)
			}
		}
		dbpool, err = db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns, ApplicationName: "anime-api"})
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer dbpool.Close()
		checkers = append(checkers, db.NewChecker(dbpool))
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		checkers = append(checkers, cache.NewChecker(redisClient))
	}

	encoder := auth.NewPasswordEncoder(cfg.BcryptCost)
	seedStore, err := auth.NewSeedStore(cfg.SeedAccounts, encoder)
	if err != nil {
		logger.Error("load seed accounts", slog.Any("error", err))
		os.Exit(1)
	}
	credentials := auth.ChainStore{seedStore}
	if dbpool != nil {
		credentials = append(credentials, auth.NewCachedStore(auth.NewPGStore(dbpool), cfg.PrincipalCacheSize, cfg.PrincipalCacheTTL))
	}
	authService := auth.NewService(credentials, encoder, auth.WithLogger(logger), auth.WithObserver(metrics))
	logger.Info("credential stores ready", slog.Int("seed_accounts", seedStore.Len()), slog.Bool("database_accounts", dbpool != nil))

	var (
		authHandler *auth.Handler
		sessions    rbac.SessionResolver
	)
	if redisClient != nil {
		sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
		authHandler = auth.NewHandler(logger, authService, sessionManager)
		sessions = auth.NewSessionPrincipals(sessionManager, credentials)
	} else {
		logger.Warn("REDIS_ADDR unset, form login is disabled")
	}

	var (
		repo  animes.Repository
		audit shared.AuditRecorder = shared.NopAuditRecorder{}
	)
	if dbpool != nil {
		repo = animes.NewRepository(dbpool)
		audit = shared.NewAuditLogger(dbpool)
	} else {
		logger.Warn("PG_DSN unset, anime are kept in memory")
		repo = animes.NewMemoryRepository()
	}
	if redisClient != nil {
		repo = animes.NewCachedRepository(repo, cache.NewVersioned(redisClient, "animes", cfg.CacheTTL), logger)
	}
	animeService := animes.NewService(repo, audit, logger)

	var jobHandler *jobs.Handler
	if cfg.RedisAddr != "" {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, jobClient, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Metrics: metrics,
		RBACMiddleware: rbac.Middleware{
			Rules:         rbac.MustRuleSet(rbac.DefaultRules()...),
			Authenticator: authService,
			Sessions:      sessions,
			Logger:        logger,
		},
		AuthHandler:    authHandler,
		AnimeHandler:   animes.NewHandler(logger, animeService),
		JobHandler:     jobHandler,
		HealthCheckers: checkers,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
