package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/byggbas/byggbas/internal/integration"
)

// SyncDispatchJob drains the pending sync job queue on each invocation.
type SyncDispatchJob struct {
	service *integration.Service
	logger  *slog.Logger
}

func NewSyncDispatchJob(service *integration.Service, logger *slog.Logger) *SyncDispatchJob {
	return &SyncDispatchJob{service: service, logger: logger}
}

// Handle processes TaskSyncDispatch tasks.
func (j *SyncDispatchJob) Handle(ctx context.Context, t *asynq.Task) error {
	if err := j.service.DispatchPending(ctx); err != nil {
		j.logger.Error("sync dispatch", slog.Any("error", err))
		return err
	}
	return nil
}

// SyncWatchdogJob returns jobs stuck in processing back to pending.
type SyncWatchdogJob struct {
	service *integration.Service
	logger  *slog.Logger
}

func NewSyncWatchdogJob(service *integration.Service, logger *slog.Logger) *SyncWatchdogJob {
	return &SyncWatchdogJob{service: service, logger: logger}
}

// Handle processes TaskSyncWatchdog tasks.
func (j *SyncWatchdogJob) Handle(ctx context.Context, t *asynq.Task) error {
	reset, err := j.service.Watchdog(ctx)
	if err != nil {
		j.logger.Error("sync watchdog", slog.Any("error", err))
		return err
	}
	if reset > 0 {
		j.logger.Info("sync watchdog sweep", slog.Int64("reset", reset))
	}
	return nil
}
