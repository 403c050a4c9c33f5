package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"railwatch-service/internal/domain/entity"
	"railwatch-service/pkg/logger"
	"railwatch-service/pkg/metrics"
)

// promauto registers on the default registry, so the package shares one
// metrics instance across all tests
var testMetrics = metrics.NewMetrics("railwatch_test")

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})      {}
func (nopLogger) Info(string, ...interface{})       {}
func (nopLogger) Warn(string, ...interface{})       {}
func (nopLogger) Error(string, ...interface{})      {}
func (nopLogger) Fatal(string, ...interface{})      {}
func (nopLogger) With(...interface{}) logger.Logger { return nopLogger{} }

// memoryLedger is an in-memory sliding-window ledger with an injectable
// clock
type memoryLedger struct {
	entries []time.Time
	clock   func() time.Time
	failing bool
}

func newMemoryLedger(clock func() time.Time) *memoryLedger {
	return &memoryLedger{clock: clock}
}

func (l *memoryLedger) Allow(_ context.Context, limit int, window time.Duration) (bool, error) {
	if l.failing {
		return false, errors.New("ledger unavailable")
	}
	now := l.clock()

	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.After(now.Add(-2 * window)) {
			kept = append(kept, e)
		}
	}
	l.entries = kept

	count := 0
	for _, e := range l.entries {
		if e.After(now.Add(-window)) {
			count++
		}
	}
	return count < limit, nil
}

func (l *memoryLedger) Record(_ context.Context, now time.Time) error {
	l.entries = append(l.entries, now)
	return nil
}

type fakeTaskRepo struct {
	tasks        []*entity.WatchTask
	listErr      error
	checkedIDs   []uint
	notifiedIDs  []uint
	completedIDs []uint
}

func (r *fakeTaskRepo) Create(_ context.Context, task *entity.WatchTask) error { return nil }

func (r *fakeTaskRepo) ListActive(_ context.Context) ([]*entity.WatchTask, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.tasks, nil
}

func (r *fakeTaskRepo) ListByUser(_ context.Context, _ string) ([]*entity.WatchTask, error) {
	return r.tasks, nil
}

func (r *fakeTaskRepo) TouchLastChecked(_ context.Context, taskID uint, _ time.Time) error {
	r.checkedIDs = append(r.checkedIDs, taskID)
	return nil
}

func (r *fakeTaskRepo) TouchLastNotified(_ context.Context, taskID uint, _ time.Time) error {
	r.notifiedIDs = append(r.notifiedIDs, taskID)
	return nil
}

func (r *fakeTaskRepo) MarkCompleted(_ context.Context, taskID uint) error {
	r.completedIDs = append(r.completedIDs, taskID)
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, _ uint) error { return nil }

// fakeTicketSource serves canned results keyed by "from->to"
type fakeTicketSource struct {
	results map[string][]entity.TrainAvailability
	calls   []string
}

func (f *fakeTicketSource) QueryLeftTickets(_ context.Context, from, to, _ string) ([]entity.TrainAvailability, error) {
	key := fmt.Sprintf("%s->%s", from, to)
	f.calls = append(f.calls, key)
	return f.results[key], nil
}

type fakeMailer struct {
	sendErr  error
	sent     []string // subjects in delivery order
	receiver []string
}

func (m *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, subject)
	m.receiver = append(m.receiver, to)
	return nil
}

type fakeAlertLog struct {
	saved []*entity.AlertLog
}

func (f *fakeAlertLog) Save(_ context.Context, alert *entity.AlertLog) error {
	f.saved = append(f.saved, alert)
	return nil
}

func (f *fakeAlertLog) FindByTaskID(_ context.Context, _ uint, _ int) ([]*entity.AlertLog, error) {
	return f.saved, nil
}
