package usecase

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"railwatch-service/internal/domain/entity"
	"railwatch-service/internal/domain/repository"
	"railwatch-service/pkg/logger"
	"railwatch-service/pkg/metrics"
)

const storeRetryBackoff = 5 * time.Second

// MonitorConfig carries the scheduling and matching constants
type MonitorConfig struct {
	IdleInterval      time.Duration
	BatchInterval     time.Duration
	TaskPollInterval  time.Duration
	NotifyCooldown    time.Duration
	DirectLimit       int
	TransferLimit     int
	MinLayoverMinutes int
	PlanCap           int
}

// Monitor is the polling scheduler: one control loop that classifies
// tasks, batches routes, runs the fetch/match pipeline group by group,
// and keeps per-task bookkeeping
type Monitor struct {
	cfg        MonitorConfig
	taskRepo   repository.WatchTaskRepository
	tickets    repository.TicketRepository
	governor   *Governor
	dispatcher *AlertDispatcher
	logger     logger.Logger
	metrics    *metrics.Metrics

	// injectable for tests
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration)
	jitter func(min, max time.Duration) time.Duration
}

// NewMonitor creates the scheduler loop
func NewMonitor(
	cfg MonitorConfig,
	taskRepo repository.WatchTaskRepository,
	tickets repository.TicketRepository,
	governor *Governor,
	dispatcher *AlertDispatcher,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *Monitor {
	return &Monitor{
		cfg:        cfg,
		taskRepo:   taskRepo,
		tickets:    tickets,
		governor:   governor,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
		sleep:      sleepCtx,
		jitter:     randomBetween,
	}
}

// Run executes poll cycles until the context is cancelled. Store
// failures back off and retry; nothing inside the loop can crash it.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("Ticket monitor started",
		"pollInterval", m.cfg.TaskPollInterval,
		"cooldown", m.cfg.NotifyCooldown)

	for ctx.Err() == nil {
		m.runCycle(ctx)
	}

	m.logger.Info("Ticket monitor stopped")
}

func (m *Monitor) runCycle(ctx context.Context) {
	started := m.now()

	tasks, err := m.taskRepo.ListActive(ctx)
	if err != nil {
		m.logger.Error("Failed to load active tasks", "error", err)
		m.metrics.ErrorsCount.WithLabelValues("list_tasks").Inc()
		m.sleep(ctx, storeRetryBackoff)
		return
	}

	due := m.filterDue(tasks, m.now())
	if len(due) == 0 {
		m.sleep(ctx, m.cfg.IdleInterval)
		return
	}

	m.logger.Info("Due tasks found", "due", len(due), "active", len(tasks))

	groups := GroupRoutes(due)
	for i, group := range groups {
		if ctx.Err() != nil {
			return
		}

		// spread groups out so a cycle never bursts at the upstream
		m.sleep(ctx, m.jitter(1*time.Second, 5*time.Second))
		m.processGroup(ctx, group)

		if i < len(groups)-1 {
			m.sleep(ctx, m.jitter(5*time.Second, 10*time.Second))
		}
	}

	m.metrics.CycleDuration.Observe(m.now().Sub(started).Seconds())
	m.sleep(ctx, m.cfg.BatchInterval)
}

// filterDue derives each task's cycle state. Cooldown wins over the
// poll-interval check; a never-checked task is always due.
func (m *Monitor) filterDue(tasks []*entity.WatchTask, now time.Time) []*entity.WatchTask {
	var due []*entity.WatchTask
	for _, task := range tasks {
		if task.LastNotifiedAt != nil && now.Sub(*task.LastNotifiedAt) < m.cfg.NotifyCooldown {
			continue
		}
		if task.LastCheckedAt != nil && now.Sub(*task.LastCheckedAt) < m.cfg.TaskPollInterval {
			continue
		}
		due = append(due, task)
	}
	return due
}

// processGroup runs the fetch/match pipeline for one route group.
// lastCheckedAt moves only when the governor admitted the attempt; a
// deferred group keeps its timestamps so the next tick retries it
// without waiting out the poll interval.
func (m *Monitor) processGroup(ctx context.Context, group entity.RouteGroup) {
	var admitted bool
	if group.Key.Via != "" {
		admitted = m.processTransfer(ctx, group)
	} else {
		admitted = m.processDirect(ctx, group)
	}

	if !admitted {
		m.logger.Warn("Route group deferred by rate governor",
			"from", group.Key.From,
			"to", group.Key.To,
			"via", group.Key.Via)
		m.metrics.RateLimitDeferred.Inc()
		return
	}

	now := m.now()
	for _, task := range group.Tasks {
		if err := m.taskRepo.TouchLastChecked(ctx, task.ID, now); err != nil {
			m.logger.Error("Failed to update check time", "taskId", task.ID, "error", err)
		}
	}
}

func (m *Monitor) processDirect(ctx context.Context, group entity.RouteGroup) bool {
	if !m.governor.Admit(ctx, m.cfg.DirectLimit) {
		return false
	}

	trains := m.fetchLeg(ctx, group.Key.From, group.Key.To, group.Key.Date)
	if len(trains) == 0 {
		return true
	}

	for _, task := range group.Tasks {
		tickets := MatchDirect(trains, splitSeatTypes(task.SeatTypes))
		if len(tickets) > 0 {
			m.dispatcher.DispatchDirect(ctx, task, group.Key, tickets)
		}
	}
	return true
}

// processTransfer checks headroom for both legs up front but fetches leg
// B only when leg A produced trains, saving a call and its budget.
func (m *Monitor) processTransfer(ctx context.Context, group entity.RouteGroup) bool {
	if !m.governor.Admit(ctx, m.cfg.TransferLimit) {
		return false
	}

	legA := m.fetchLeg(ctx, group.Key.From, group.Key.Via, group.Key.Date)
	if len(legA) == 0 {
		return true
	}

	legB := m.fetchLeg(ctx, group.Key.Via, group.Key.To, group.Key.Date)
	if len(legB) == 0 {
		return true
	}

	for _, task := range group.Tasks {
		plans := MatchTransfer(legA, legB, splitSeatTypes(task.SeatTypes), m.cfg.MinLayoverMinutes, m.cfg.PlanCap)
		if len(plans) > 0 {
			m.dispatcher.DispatchTransfer(ctx, task, group.Key, plans)
		}
	}
	return true
}

// fetchLeg records one ledger entry, queries one station pair, and
// degrades any failure to an empty result so the loop keeps moving
func (m *Monitor) fetchLeg(ctx context.Context, from, to, date string) []entity.TrainAvailability {
	m.governor.Record(ctx, m.now())
	m.metrics.QueriesIssued.Inc()

	m.logger.Info("Querying availability", "from", from, "to", to, "date", date)
	trains, err := m.tickets.QueryLeftTickets(ctx, from, to, date)
	if err != nil {
		m.logger.Warn("Availability query degraded to empty result",
			"from", from, "to", to, "error", err)
		m.metrics.ErrorsCount.WithLabelValues("fetch").Inc()
		return nil
	}
	return trains
}

func splitSeatTypes(s string) []string {
	parts := strings.Split(s, ",")
	seats := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			seats = append(seats, p)
		}
	}
	return seats
}

func randomBetween(min, max time.Duration) time.Duration {
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
