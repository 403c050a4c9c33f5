package usecase

import (
	"context"
	"time"

	"railwatch-service/internal/domain/repository"
	"railwatch-service/pkg/logger"
)

// Governor gates route-group queries against the shared request budget.
// It is global: one budget across all routes and both task shapes.
type Governor struct {
	ledger repository.RateLimitRepository
	window time.Duration
	logger logger.Logger
}

// NewGovernor creates a governor over the given ledger backend
func NewGovernor(ledger repository.RateLimitRepository, window time.Duration, logger logger.Logger) *Governor {
	return &Governor{
		ledger: ledger,
		window: window,
		logger: logger,
	}
}

// Admit reports whether the trailing window has headroom for limit
// units. Admission is a conservative upper-bound check, not a
// reservation: the caller records one ledger entry per upstream call it
// actually makes, so a transfer group admitted against 4 may consume
// only 1 or 2. A ledger failure denies admission; the group is retried
// on the next tick.
func (g *Governor) Admit(ctx context.Context, limit int) bool {
	ok, err := g.ledger.Allow(ctx, limit, g.window)
	if err != nil {
		g.logger.Error("Rate ledger check failed", "error", err)
		return false
	}
	return ok
}

// Record appends one ledger entry for an upstream call being made
func (g *Governor) Record(ctx context.Context, now time.Time) {
	if err := g.ledger.Record(ctx, now); err != nil {
		g.logger.Error("Rate ledger record failed", "error", err)
	}
}
