package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSyncDispatch drains pending accounting sync jobs.
	TaskSyncDispatch = "sync:dispatch"
	// TaskSyncWatchdog resets sync jobs stuck in processing.
	TaskSyncWatchdog = "sync:watchdog"
)

// NewSyncDispatchTask constructs the dispatch task. It carries no payload;
// the queue state lives in Postgres.
func NewSyncDispatchTask() *asynq.Task {
	return asynq.NewTask(TaskSyncDispatch, nil)
}

// NewSyncWatchdogTask constructs the watchdog sweep task.
func NewSyncWatchdogTask() *asynq.Task {
	return asynq.NewTask(TaskSyncWatchdog, nil)
}
