package usecase

import (
	"context"
	"time"

	"railwatch-service/internal/domain/entity"
	"railwatch-service/internal/domain/repository"
	"railwatch-service/pkg/logger"
	"railwatch-service/pkg/metrics"
	"railwatch-service/templates"
)

// AlertDispatcher renders and delivers ticket alerts and owns the
// cooldown bookkeeping that follows a confirmed delivery
type AlertDispatcher struct {
	emailRepo    repository.EmailRepository
	alertLogRepo repository.AlertLogRepository
	taskRepo     repository.WatchTaskRepository
	logger       logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewAlertDispatcher creates a new alert dispatcher
func NewAlertDispatcher(
	emailRepo repository.EmailRepository,
	alertLogRepo repository.AlertLogRepository,
	taskRepo repository.WatchTaskRepository,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *AlertDispatcher {
	return &AlertDispatcher{
		emailRepo:    emailRepo,
		alertLogRepo: alertLogRepo,
		taskRepo:     taskRepo,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

// DispatchDirect sends a direct-route alert for one task
func (d *AlertDispatcher) DispatchDirect(ctx context.Context, task *entity.WatchTask, key entity.RouteKey, tickets []entity.FoundTicket) {
	body, err := templates.RenderDirectAlert(tickets)
	if err != nil {
		d.logger.Error("Failed to render direct alert", "taskId", task.ID, "error", err)
		return
	}

	subject := templates.DirectSubject(key.Date, key.From, key.To)
	d.deliver(ctx, task, key, subject, body, len(tickets))
}

// DispatchTransfer sends a transfer-plan alert for one task
func (d *AlertDispatcher) DispatchTransfer(ctx context.Context, task *entity.WatchTask, key entity.RouteKey, plans []entity.TransferPlan) {
	body, err := templates.RenderTransferAlert(key, plans)
	if err != nil {
		d.logger.Error("Failed to render transfer alert", "taskId", task.ID, "error", err)
		return
	}

	subject := templates.TransferSubject(key.Date, key.From, key.Via, key.To)
	d.deliver(ctx, task, key, subject, body, len(plans))
}

// deliver hands the mail to the provider. Only a confirmed delivery
// starts the cooldown; on failure the task stays eligible next cycle,
// accepting a possible duplicate over a silently lost alert.
func (d *AlertDispatcher) deliver(ctx context.Context, task *entity.WatchTask, key entity.RouteKey, subject, body string, matchCount int) {
	if err := d.emailRepo.Send(ctx, task.ReceiverEmail, subject, body); err != nil {
		d.logger.Error("Alert delivery failed",
			"taskId", task.ID,
			"receiver", task.ReceiverEmail,
			"error", err)
		d.metrics.ErrorsCount.WithLabelValues("send_alert").Inc()
		return
	}

	now := d.now()
	if err := d.taskRepo.TouchLastNotified(ctx, task.ID, now); err != nil {
		d.logger.Error("Failed to update notification time", "taskId", task.ID, "error", err)
	}

	// audit trail; a write failure here never blocks the alert path
	if err := d.alertLogRepo.Save(ctx, &entity.AlertLog{
		TaskID:      task.ID,
		Receiver:    task.ReceiverEmail,
		Subject:     subject,
		FromStation: key.From,
		ToStation:   key.To,
		ViaStation:  key.Via,
		TravelDate:  key.Date,
		MatchCount:  matchCount,
		SentAt:      now,
	}); err != nil {
		d.logger.Error("Failed to save alert log", "taskId", task.ID, "error", err)
	}

	d.metrics.AlertsSent.Inc()
	d.logger.Info("Alert sent, task entering cooldown",
		"taskId", task.ID,
		"receiver", task.ReceiverEmail,
		"matches", matchCount)
}
