package repository

import (
	"context"
	"strconv"
	"time"

	"railwatch-service/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const ledgerKey = "railwatch:request_ledger"

// RedisLedgerRepository is the Redis-backed rate-limit ledger. Entries
// live in one sorted set scored by unix-nano timestamp, which gives the
// same sliding-window semantics as the request_logs table.
type RedisLedgerRepository struct {
	rdb *redis.Client
}

// NewRedisLedgerRepository creates a new Redis ledger repository
func NewRedisLedgerRepository(rdb *redis.Client) repository.RateLimitRepository {
	return &RedisLedgerRepository{rdb: rdb}
}

// Allow purges entries older than twice the window, then counts entries
// inside the window against limit
func (r *RedisLedgerRepository) Allow(ctx context.Context, limit int, window time.Duration) (bool, error) {
	now := time.Now()

	purgeBefore := strconv.FormatInt(now.Add(-2*window).UnixNano(), 10)
	if err := r.rdb.ZRemRangeByScore(ctx, ledgerKey, "-inf", purgeBefore).Err(); err != nil {
		return false, err
	}

	windowStart := strconv.FormatInt(now.Add(-window).UnixNano(), 10)
	count, err := r.rdb.ZCount(ctx, ledgerKey, windowStart, "+inf").Result()
	if err != nil {
		return false, err
	}

	return count < int64(limit), nil
}

// Record appends one ledger entry for an upstream call actually made
func (r *RedisLedgerRepository) Record(ctx context.Context, now time.Time) error {
	return r.rdb.ZAdd(ctx, ledgerKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	}).Err()
}
