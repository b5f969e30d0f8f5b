package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-desk/internal/app"
	"github.com/odyssey-erp/odyssey-desk/internal/backend"
	"github.com/odyssey-erp/odyssey-desk/internal/entities"
	"github.com/odyssey-erp/odyssey-desk/internal/journal"
	"github.com/odyssey-erp/odyssey-desk/internal/observability"
	"github.com/odyssey-erp/odyssey-desk/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-desk/jobs"
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

	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	redisClient, err := cache.New(ctx, redisOpts)
	if err != nil {
		logger.Warn("redis unavailable, running without cache and draft snapshots", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	api := backend.NewClient(backend.Config{
		BaseURL: cfg.BackendBaseURL,
		Token:   cfg.BackendToken,
		Timeout: cfg.BackendTimeout,
	}, logger).WithObserver(metrics)

	var (
		entityCache *entities.Cache
		snapshots   journal.SnapshotStore
		queue       entities.RefreshQueue
		jobHandler  *jobs.Handler
	)
	if redisClient != nil {
		entityCache = entities.NewCache(redisClient, cfg.EntityCacheTTL)
		snapshots = journal.NewRedisSnapshots(redisClient, cfg.DraftTTL)

		asynqOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		jobClient, err := jobs.NewClient(asynqOpts)
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		queue = jobClient

		inspector := asynq.NewInspector(asynqOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	directory := entities.NewDirectory(api, entityCache, logger)
	entitiesHandler := entities.NewHandler(logger, directory, queue)

	journalService := journal.NewService(api, directory, snapshots, journal.NewMetrics(metrics.Registerer()), logger, journal.ServiceConfig{
		DraftTTL:      cfg.DraftTTL,
		FetchTimeout:  cfg.BackendTimeout,
		SubmitTimeout: cfg.BackendTimeout,
	})
	if redisClient != nil {
		journalService.WithIdempotency(journal.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL))
	}
	journalHandler := journal.NewHandler(logger, journalService)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		EntitiesHandler: entitiesHandler,
		JournalHandler:  journalHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendBaseURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
