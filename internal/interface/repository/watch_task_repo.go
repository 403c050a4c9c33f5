package repository

import (
	"context"
	"time"

	"railwatch-service/internal/domain/entity"
	"railwatch-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormWatchTaskRepository implements the WatchTaskRepository interface
type GormWatchTaskRepository struct {
	db *gorm.DB
}

// WatchTasks GORM model for database mapping
type WatchTasks struct {
	ID             uint   `gorm:"primaryKey"`
	Username       string `gorm:"column:username;index"`
	FromStation    string `gorm:"column:from_station"`
	ToStation      string `gorm:"column:to_station"`
	ViaStation     string `gorm:"column:via_station;default:''"`
	TravelDate     string `gorm:"column:travel_date"`
	TrainTypes     string `gorm:"column:train_types"`
	SeatTypes      string `gorm:"column:seat_types"`
	ReceiverEmail  string `gorm:"column:receiver_email"`
	Status         int    `gorm:"column:status;default:1;index"`
	CreatedAt      time.Time
	LastCheckedAt  *time.Time `gorm:"column:last_checked_at"`
	LastNotifiedAt *time.Time `gorm:"column:last_notified_at"`
}

// TableName overrides the default table name
func (WatchTasks) TableName() string {
	return "watch_tasks"
}

// NewGormWatchTaskRepository creates a new GORM watch task repository and
// keeps the table schema current
func NewGormWatchTaskRepository(db *gorm.DB) (repository.WatchTaskRepository, error) {
	if err := db.AutoMigrate(&WatchTasks{}); err != nil {
		return nil, err
	}
	return &GormWatchTaskRepository{db: db}, nil
}

// Create inserts a new watch task
func (r *GormWatchTaskRepository) Create(ctx context.Context, task *entity.WatchTask) error {
	model := WatchTasks{
		Username:      task.Username,
		FromStation:   task.FromStation,
		ToStation:     task.ToStation,
		ViaStation:    task.ViaStation,
		TravelDate:    task.TravelDate,
		TrainTypes:    task.TrainTypes,
		SeatTypes:     task.SeatTypes,
		ReceiverEmail: task.ReceiverEmail,
		Status:        entity.StatusActive,
	}

	result := r.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		return result.Error
	}

	task.ID = model.ID
	task.Status = model.Status
	task.CreatedAt = model.CreatedAt
	return nil
}

// ListActive returns every task currently being monitored
func (r *GormWatchTaskRepository) ListActive(ctx context.Context) ([]*entity.WatchTask, error) {
	var models []WatchTasks
	result := r.db.WithContext(ctx).Where("status = ?", entity.StatusActive).Order("id").Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return toEntities(models), nil
}

// ListByUser returns all tasks owned by a user, newest first
func (r *GormWatchTaskRepository) ListByUser(ctx context.Context, username string) ([]*entity.WatchTask, error) {
	var models []WatchTasks
	result := r.db.WithContext(ctx).Where("username = ?", username).Order("created_at DESC").Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return toEntities(models), nil
}

// TouchLastChecked records that the task's route was queried
func (r *GormWatchTaskRepository) TouchLastChecked(ctx context.Context, taskID uint, now time.Time) error {
	return r.db.WithContext(ctx).Model(&WatchTasks{}).
		Where("id = ?", taskID).
		Update("last_checked_at", now).Error
}

// TouchLastNotified records a confirmed alert delivery, starting the cooldown
func (r *GormWatchTaskRepository) TouchLastNotified(ctx context.Context, taskID uint, now time.Time) error {
	return r.db.WithContext(ctx).Model(&WatchTasks{}).
		Where("id = ?", taskID).
		Update("last_notified_at", now).Error
}

// MarkCompleted flags a task as completed
func (r *GormWatchTaskRepository) MarkCompleted(ctx context.Context, taskID uint) error {
	return r.db.WithContext(ctx).Model(&WatchTasks{}).
		Where("id = ?", taskID).
		Update("status", entity.StatusCompleted).Error
}

// Delete removes a task
func (r *GormWatchTaskRepository) Delete(ctx context.Context, taskID uint) error {
	return r.db.WithContext(ctx).Delete(&WatchTasks{}, taskID).Error
}

func toEntities(models []WatchTasks) []*entity.WatchTask {
	entities := make([]*entity.WatchTask, 0, len(models))
	for _, m := range models {
		entities = append(entities, &entity.WatchTask{
			ID:             m.ID,
			Username:       m.Username,
			FromStation:    m.FromStation,
			ToStation:      m.ToStation,
			ViaStation:     m.ViaStation,
			TravelDate:     m.TravelDate,
			TrainTypes:     m.TrainTypes,
			SeatTypes:      m.SeatTypes,
			ReceiverEmail:  m.ReceiverEmail,
			Status:         m.Status,
			CreatedAt:      m.CreatedAt,
			LastCheckedAt:  m.LastCheckedAt,
			LastNotifiedAt: m.LastNotifiedAt,
		})
	}
	return entities
}
