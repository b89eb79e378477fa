package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a redis-backed fixed-window counter. A nil Limiter (or one
// built without a redis client) allows everything, so callers can wire it
// unconditionally.
type Limiter struct {
	rdb    *redis.Client
	prefix string
	max    int
	window time.Duration
}

func New(rdb *redis.Client, prefix string, max int, window time.Duration) *Limiter {
	if prefix == "" {
		prefix = "userportal:ratelimit"
	}
	return &Limiter{
		rdb:    rdb,
		prefix: prefix,
		max:    max,
		window: window,
	}
}

// Allow counts one attempt for key and reports whether it is still within
// the window's budget.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rdb == nil || l.max <= 0 {
		return true, nil
	}

	bucket := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.rdb.Incr(ctx, bucket).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit incr: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, bucket, l.window).Err(); err != nil {
			return false, fmt.Errorf("ratelimit expire: %w", err)
		}
	}

	return count <= int64(l.max), nil
}
