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

	"github.com/byggbas/byggbas/internal/app"
	"github.com/byggbas/byggbas/internal/auth"
	"github.com/byggbas/byggbas/internal/integration"
	"github.com/byggbas/byggbas/internal/invoice"
	"github.com/byggbas/byggbas/internal/observability"
	"github.com/byggbas/byggbas/internal/payroll"
	"github.com/byggbas/byggbas/internal/platform/cache"
	"github.com/byggbas/byggbas/internal/platform/db"
	"github.com/byggbas/byggbas/internal/rot"
	"github.com/byggbas/byggbas/internal/schedule"
	"github.com/byggbas/byggbas/internal/shared"
	"github.com/byggbas/byggbas/internal/timeentry"
	"github.com/byggbas/byggbas/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	dedupe := shared.NewDedupeStore(redisClient, cfg.DedupeTTL)

	tokens := auth.NewTokenManager(cfg.AuthSecret, cfg.TokenTTL)
	authService := auth.NewService(auth.NewRepository(pool), tokens)
	authMW := auth.Middleware{Tokens: tokens, Logger: logger}

	timeEntryRepo := timeentry.NewRepository(pool)
	payrollService := payroll.NewService(payroll.NewRepository(pool), timeentry.NewPayrollSource(timeEntryRepo), auditLogger, metrics)
	timeEntryService := timeentry.NewService(timeEntryRepo, payrollService)

	scheduleService := schedule.NewService(schedule.NewRepository(pool))
	rotService := rot.NewService(rot.NewRepository(pool), rot.DefaultRules(), auditLogger)

	invoiceRepo := invoice.NewRepository(pool)
	invoiceService := invoice.NewService(invoiceRepo, auditLogger)

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
		integration.NewRepository(pool), invoiceRepo, tokenCipher, providerClient,
		metrics, logger, integration.Options{
			MaxAttempts: cfg.SyncMaxAttempts,
			StuckAfter:  cfg.SyncStuckAfter,
		})

	queueClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	webhookSecrets := make(map[integration.Provider]string)
	for provider, secret := range cfg.WebhookSecrets() {
		webhookSecrets[integration.Provider(provider)] = secret
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Auth:               authMW,
		AuthHandler:        auth.NewHandler(logger, authService),
		PayrollHandler:     payroll.NewHandler(logger, payrollService, authMW.RequireAdmin),
		TimeEntryHandler:   timeentry.NewHandler(logger, timeEntryService, dedupe),
		ScheduleHandler:    schedule.NewHandler(logger, scheduleService),
		RotHandler:         rot.NewHandler(logger, rotService, authMW.RequireAdmin),
		InvoiceHandler:     invoice.NewHandler(logger, invoiceService),
		IntegrationHandler: integration.NewHandler(logger, integrationService, queueClient.TriggerSyncDispatch),
		WebhookHandler:     integration.NewWebhookHandler(logger, webhookSecrets),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
