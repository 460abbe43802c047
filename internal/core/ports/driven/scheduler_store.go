package driven

import (
	"context"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

// SchedulerStore keeps the proxy sweep's schedule across restarts so a
// restarted server does not sweep immediately, and records each run.
type SchedulerStore interface {
	// GetTask returns the task with taskID, or nil and no error when the
	// task has never been saved.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns every saved task ordered by ID.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask upserts task by ID.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// DeleteTask removes a task and its run history.
	DeleteTask(ctx context.Context, taskID string) error

	// RecordResult appends one run to the task's history.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns up to limit runs, newest first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps the newest keep runs per task and drops the rest.
	PruneHistory(ctx context.Context, keep int) error
}
