package repository

import (
	"context"
	"time"

	"railwatch-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormRequestLogRepository is the PostgreSQL-backed rate-limit ledger
type GormRequestLogRepository struct {
	db *gorm.DB
}

// RequestLogs GORM model for database mapping
type RequestLogs struct {
	ID      uint      `gorm:"primaryKey"`
	ReqTime time.Time `gorm:"column:req_time;index"`
}

// TableName overrides the default table name
func (RequestLogs) TableName() string {
	return "request_logs"
}

// NewGormRequestLogRepository creates a new GORM request log repository
func NewGormRequestLogRepository(db *gorm.DB) (repository.RateLimitRepository, error) {
	if err := db.AutoMigrate(&RequestLogs{}); err != nil {
		return nil, err
	}
	return &GormRequestLogRepository{db: db}, nil
}

// Allow reports whether the trailing window holds fewer than limit
// entries. Entries older than twice the window are purged first to keep
// the table light; the purge is housekeeping, not correctness.
func (r *GormRequestLogRepository) Allow(ctx context.Context, limit int, window time.Duration) (bool, error) {
	now := time.Now()

	if err := r.db.WithContext(ctx).
		Where("req_time < ?", now.Add(-2*window)).
		Delete(&RequestLogs{}).Error; err != nil {
		return false, err
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&RequestLogs{}).
		Where("req_time > ?", now.Add(-window)).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count < int64(limit), nil
}

// Record appends one ledger entry for an upstream call actually made
func (r *GormRequestLogRepository) Record(ctx context.Context, now time.Time) error {
	return r.db.WithContext(ctx).Create(&RequestLogs{ReqTime: now}).Error
}
