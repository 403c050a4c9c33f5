package repository

import (
	"context"

	"railwatch-service/internal/domain/entity"
)

// AlertLogRepository defines the interface for the sent-alert audit trail
type AlertLogRepository interface {
	Save(ctx context.Context, alert *entity.AlertLog) error
	FindByTaskID(ctx context.Context, taskID uint, limit int) ([]*entity.AlertLog, error)
}
