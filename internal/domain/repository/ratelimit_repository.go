package repository

import (
	"context"
	"time"
)

// RateLimitRepository is the shared request-budget ledger. Allow counts
// ledger entries inside the trailing window (purging entries older than
// twice the window as housekeeping) and reports whether the count is
// below limit. Record appends one entry per actual upstream call made;
// the two are deliberately separate so a caller can reserve headroom
// without consuming it.
type RateLimitRepository interface {
	Allow(ctx context.Context, limit int, window time.Duration) (bool, error)
	Record(ctx context.Context, now time.Time) error
}
