package repository

import (
	"context"
	"time"

	"railwatch-service/internal/domain/entity"
)

// WatchTaskRepository defines the interface for watch task storage operations.
// The monitor only reads active tasks and touches the two bookkeeping
// timestamps; the remaining operations serve the dashboard side.
type WatchTaskRepository interface {
	Create(ctx context.Context, task *entity.WatchTask) error
	ListActive(ctx context.Context) ([]*entity.WatchTask, error)
	ListByUser(ctx context.Context, username string) ([]*entity.WatchTask, error)
	TouchLastChecked(ctx context.Context, taskID uint, now time.Time) error
	TouchLastNotified(ctx context.Context, taskID uint, now time.Time) error
	MarkCompleted(ctx context.Context, taskID uint) error
	Delete(ctx context.Context, taskID uint) error
}
