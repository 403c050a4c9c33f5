package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"railwatch-service/internal/domain/entity"
)

func testConfig() MonitorConfig {
	return MonitorConfig{
		IdleInterval:      10 * time.Second,
		BatchInterval:     15 * time.Second,
		TaskPollInterval:  10 * time.Minute,
		NotifyCooldown:    3 * time.Hour,
		DirectLimit:       2,
		TransferLimit:     4,
		MinLayoverMinutes: 40,
		PlanCap:           5,
	}
}

type monitorFixture struct {
	monitor *Monitor
	tasks   *fakeTaskRepo
	tickets *fakeTicketSource
	ledger  *memoryLedger
	mailer  *fakeMailer
	alerts  *fakeAlertLog
	sleeps  []time.Duration
}

func newMonitorFixture(clock func() time.Time, tasks ...*entity.WatchTask) *monitorFixture {
	f := &monitorFixture{
		tasks:   &fakeTaskRepo{tasks: tasks},
		tickets: &fakeTicketSource{results: map[string][]entity.TrainAvailability{}},
		ledger:  newMemoryLedger(clock),
		mailer:  &fakeMailer{},
		alerts:  &fakeAlertLog{},
	}

	governor := NewGovernor(f.ledger, 60*time.Second, nopLogger{})
	dispatcher := NewAlertDispatcher(f.mailer, f.alerts, f.tasks, nopLogger{}, testMetrics)
	dispatcher.now = clock

	f.monitor = NewMonitor(testConfig(), f.tasks, f.tickets, governor, dispatcher, nopLogger{}, testMetrics)
	f.monitor.now = clock
	f.monitor.sleep = func(_ context.Context, d time.Duration) { f.sleeps = append(f.sleeps, d) }
	f.monitor.jitter = func(_, _ time.Duration) time.Duration { return 0 }
	return f
}

func fixedClock() func() time.Time {
	now := time.Date(2025, 1, 20, 8, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func ago(clock func() time.Time, d time.Duration) *time.Time {
	t := clock().Add(-d)
	return &t
}

// ── due classification ─────────────────────────────────────────────────────

func TestFilterDue(t *testing.T) {
	clock := fixedClock()
	f := newMonitorFixture(clock)

	tests := []struct {
		name string
		task *entity.WatchTask
		due  bool
	}{
		{
			name: "brand new task is due",
			task: &entity.WatchTask{ID: 1},
			due:  true,
		},
		{
			name: "cooldown skips regardless of check time",
			task: &entity.WatchTask{ID: 2, LastNotifiedAt: ago(clock, 1*time.Hour)},
			due:  false,
		},
		{
			name: "cooldown wins over stale check time",
			task: &entity.WatchTask{ID: 3, LastNotifiedAt: ago(clock, 1*time.Hour), LastCheckedAt: ago(clock, 24*time.Hour)},
			due:  false,
		},
		{
			name: "checked recently is skipped",
			task: &entity.WatchTask{ID: 4, LastCheckedAt: ago(clock, 5*time.Minute)},
			due:  false,
		},
		{
			name: "checked long ago is due",
			task: &entity.WatchTask{ID: 5, LastCheckedAt: ago(clock, 11*time.Minute)},
			due:  true,
		},
		{
			name: "expired cooldown with stale check is due",
			task: &entity.WatchTask{ID: 6, LastNotifiedAt: ago(clock, 4*time.Hour), LastCheckedAt: ago(clock, 20*time.Minute)},
			due:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due := f.monitor.filterDue([]*entity.WatchTask{tt.task}, clock())
			if got := len(due) == 1; got != tt.due {
				t.Errorf("due = %v, want %v", got, tt.due)
			}
		})
	}
}

// ── direct pipeline ────────────────────────────────────────────────────────

func TestRunCycle_DirectMatchDeliversAlert(t *testing.T) {
	clock := fixedClock()
	task := &entity.WatchTask{
		ID:            7,
		FromStation:   "BJP",
		ToStation:     "SHH",
		TravelDate:    "2025-02-01",
		SeatTypes:     "二等,一等",
		ReceiverEmail: "rider@example.com",
	}
	f := newMonitorFixture(clock, task)
	f.tickets.results["BJP->SHH"] = []entity.TrainAvailability{
		train("G1", "08:00", "12:30", map[string]string{"二等": "5", "一等": "无"}),
	}

	f.monitor.runCycle(context.Background())

	if len(f.tickets.calls) != 1 || f.tickets.calls[0] != "BJP->SHH" {
		t.Fatalf("tickets calls = %v, want exactly one BJP->SHH", f.tickets.calls)
	}
	if len(f.ledger.entries) != 1 {
		t.Errorf("ledger entries = %d, want 1 per network call", len(f.ledger.entries))
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(f.mailer.sent))
	}
	if f.mailer.receiver[0] != "rider@example.com" {
		t.Errorf("receiver = %s", f.mailer.receiver[0])
	}
	if len(f.tasks.notifiedIDs) != 1 || f.tasks.notifiedIDs[0] != 7 {
		t.Errorf("notifiedIDs = %v, want [7]", f.tasks.notifiedIDs)
	}
	if len(f.tasks.checkedIDs) != 1 || f.tasks.checkedIDs[0] != 7 {
		t.Errorf("checkedIDs = %v, want [7]", f.tasks.checkedIDs)
	}
	if len(f.alerts.saved) != 1 || f.alerts.saved[0].TaskID != 7 {
		t.Errorf("alert log = %+v, want one entry for task 7", f.alerts.saved)
	}
}

func TestRunCycle_NoMatchStillAdvancesCheckTime(t *testing.T) {
	clock := fixedClock()
	task := &entity.WatchTask{ID: 8, FromStation: "BJP", ToStation: "SHH", TravelDate: "2025-02-01", SeatTypes: "二等"}
	f := newMonitorFixture(clock, task)
	f.tickets.results["BJP->SHH"] = []entity.TrainAvailability{
		train("G1", "08:00", "12:30", map[string]string{"二等": "无"}),
	}

	f.monitor.runCycle(context.Background())

	if len(f.mailer.sent) != 0 {
		t.Errorf("sent %d mails, want 0", len(f.mailer.sent))
	}
	if len(f.tasks.checkedIDs) != 1 {
		t.Errorf("checkedIDs = %v, want the task touched even with no match", f.tasks.checkedIDs)
	}
}

func TestRunCycle_GovernorDeferralLeavesBookkeepingUntouched(t *testing.T) {
	clock := fixedClock()
	task := &entity.WatchTask{ID: 9, FromStation: "BJP", ToStation: "SHH", TravelDate: "2025-02-01", SeatTypes: "二等"}
	f := newMonitorFixture(clock, task)

	// window already holds the direct budget
	f.ledger.Record(context.Background(), clock())
	f.ledger.Record(context.Background(), clock())

	f.monitor.runCycle(context.Background())

	if len(f.tickets.calls) != 0 {
		t.Errorf("tickets calls = %v, want none when deferred", f.tickets.calls)
	}
	if len(f.tasks.checkedIDs) != 0 {
		t.Errorf("checkedIDs = %v, deferred group must not advance check time", f.tasks.checkedIDs)
	}
	if len(f.ledger.entries) != 2 {
		t.Errorf("ledger entries = %d, deferral must not consume budget", len(f.ledger.entries))
	}
}

func TestRunCycle_SharedRouteFetchedOnce(t *testing.T) {
	clock := fixedClock()
	a := &entity.WatchTask{ID: 10, FromStation: "BJP", ToStation: "SHH", TravelDate: "2025-02-01", SeatTypes: "二等", ReceiverEmail: "a@example.com"}
	b := &entity.WatchTask{ID: 11, FromStation: "BJP", ToStation: "SHH", TravelDate: "2025-02-01", SeatTypes: "一等", ReceiverEmail: "b@example.com"}
	f := newMonitorFixture(clock, a, b)
	f.tickets.results["BJP->SHH"] = []entity.TrainAvailability{
		train("G1", "08:00", "12:30", map[string]string{"二等": "5", "一等": "3"}),
	}

	f.monitor.runCycle(context.Background())

	if len(f.tickets.calls) != 1 {
		t.Errorf("tickets calls = %v, route group must be fetched once", f.tickets.calls)
	}
	if len(f.mailer.sent) != 2 {
		t.Errorf("sent %d mails, want one per task", len(f.mailer.sent))
	}
}

// ── transfer pipeline ──────────────────────────────────────────────────────

func TestRunCycle_TransferEarlyExitSkipsSecondLeg(t *testing.T) {
	clock := fixedClock()
	task := &entity.WatchTask{ID: 12, FromStation: "BJP", ToStation: "SHH", ViaStation: "NJH", TravelDate: "2025-02-01", SeatTypes: "二等"}
	f := newMonitorFixture(clock, task)
	// leg A has no availability at all

	f.monitor.runCycle(context.Background())

	if len(f.tickets.calls) != 1 || f.tickets.calls[0] != "BJP->NJH" {
		t.Fatalf("tickets calls = %v, want only the first leg", f.tickets.calls)
	}
	if len(f.ledger.entries) != 1 {
		t.Errorf("ledger entries = %d, want 1 (no entry for the unfetched leg)", len(f.ledger.entries))
	}
	if len(f.tasks.checkedIDs) != 1 {
		t.Errorf("checkedIDs = %v, admitted attempt must advance check time", f.tasks.checkedIDs)
	}
}

func TestRunCycle_TransferPlanDelivered(t *testing.T) {
	clock := fixedClock()
	task := &entity.WatchTask{ID: 13, FromStation: "BJP", ToStation: "SHH", ViaStation: "NJH", TravelDate: "2025-02-01", SeatTypes: "二等", ReceiverEmail: "t@example.com"}
	f := newMonitorFixture(clock, task)
	f.tickets.results["BJP->NJH"] = []entity.TrainAvailability{
		train("G11", "08:00", "10:00", map[string]string{"二等": "5"}),
	}
	f.tickets.results["NJH->SHH"] = []entity.TrainAvailability{
		train("G22", "11:00", "13:00", map[string]string{"二等": "2"}),
	}

	f.monitor.runCycle(context.Background())

	wantCalls := []string{"BJP->NJH", "NJH->SHH"}
	if len(f.tickets.calls) != 2 || f.tickets.calls[0] != wantCalls[0] || f.tickets.calls[1] != wantCalls[1] {
		t.Fatalf("tickets calls = %v, want %v", f.tickets.calls, wantCalls)
	}
	if len(f.ledger.entries) != 2 {
		t.Errorf("ledger entries = %d, want one per leg fetched", len(f.ledger.entries))
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(f.mailer.sent))
	}
	if len(f.alerts.saved) != 1 || f.alerts.saved[0].ViaStation != "NJH" {
		t.Errorf("alert log = %+v, want transfer entry via NJH", f.alerts.saved)
	}
}

// ── failure handling ───────────────────────────────────────────────────────

func TestRunCycle_DeliveryFailureSkipsCooldown(t *testing.T) {
	clock := fixedClock()
	task := &entity.WatchTask{ID: 14, FromStation: "BJP", ToStation: "SHH", TravelDate: "2025-02-01", SeatTypes: "二等", ReceiverEmail: "x@example.com"}
	f := newMonitorFixture(clock, task)
	f.tickets.results["BJP->SHH"] = []entity.TrainAvailability{
		train("G1", "08:00", "12:30", map[string]string{"二等": "5"}),
	}
	f.mailer.sendErr = errors.New("smtp 421")

	f.monitor.runCycle(context.Background())

	if len(f.tasks.notifiedIDs) != 0 {
		t.Errorf("notifiedIDs = %v, failed delivery must not start cooldown", f.tasks.notifiedIDs)
	}
	if len(f.tasks.checkedIDs) != 1 {
		t.Errorf("checkedIDs = %v, the admitted attempt still advances check time", f.tasks.checkedIDs)
	}
	if len(f.alerts.saved) != 0 {
		t.Errorf("alert log = %v, want no audit entry for a failed delivery", f.alerts.saved)
	}
}

func TestRunCycle_StoreFailureBacksOffAndContinues(t *testing.T) {
	clock := fixedClock()
	f := newMonitorFixture(clock)
	f.tasks.listErr = errors.New("connection refused")

	f.monitor.runCycle(context.Background())

	if len(f.tickets.calls) != 0 {
		t.Errorf("tickets calls = %v, want none on store failure", f.tickets.calls)
	}
	if len(f.sleeps) != 1 || f.sleeps[0] != storeRetryBackoff {
		t.Errorf("sleeps = %v, want one fixed backoff of %v", f.sleeps, storeRetryBackoff)
	}
}

func TestRunCycle_IdleWhenNothingDue(t *testing.T) {
	clock := fixedClock()
	task := &entity.WatchTask{ID: 15, LastCheckedAt: ago(clock, time.Minute)}
	f := newMonitorFixture(clock, task)

	f.monitor.runCycle(context.Background())

	if len(f.sleeps) != 1 || f.sleeps[0] != f.monitor.cfg.IdleInterval {
		t.Errorf("sleeps = %v, want one idle sleep of %v", f.sleeps, f.monitor.cfg.IdleInterval)
	}
}
