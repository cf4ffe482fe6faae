package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/byggbas/byggbas/internal/app"
	"github.com/byggbas/byggbas/internal/integration"
	"github.com/byggbas/byggbas/internal/invoice"
	"github.com/byggbas/byggbas/internal/observability"
	"github.com/byggbas/byggbas/internal/platform/db"
	"github.com/byggbas/byggbas/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()

	encryptionKey, err := cfg.EncryptionKeyBytes()
	if err != nil {
		logger.Error("encryption key", slog.Any("error", err))
		os.Exit(1)
	}
	tokenCipher, err := integration.NewTokenCipher(encryptionKey)
	if err != nil {
		logger.Error("token cipher", slog.Any("error", err))
		os.Exit(1)
	}
	providerClient := integration.NewHTTPClient(map[integration.Provider]string{
		integration.ProviderFortnox: cfg.FortnoxAPIURL,
		integration.ProviderVisma:   cfg.VismaAPIURL,
	}, cfg.ProviderTimeout)
	integrationService := integration.NewService(
		integration.NewRepository(pool), invoice.NewRepository(pool), tokenCipher, providerClient,
		metrics, logger, integration.Options{
			MaxAttempts: cfg.SyncMaxAttempts,
			StuckAfter:  cfg.SyncStuckAfter,
		})

	dispatchJob := jobs.NewSyncDispatchJob(integrationService, logger)
	watchdogJob := jobs.NewSyncWatchdogJob(integrationService, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSyncDispatch, Handler: dispatchJob.Handle},
			{Type: jobs.TaskSyncWatchdog, Handler: watchdogJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "* * * * *", Task: jobs.NewSyncDispatchTask(), Options: []asynq.Option{asynq.MaxRetry(2)}},
			{Spec: "* * * * *", Task: jobs.NewSyncWatchdogTask(), Options: []asynq.Option{asynq.MaxRetry(2)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
