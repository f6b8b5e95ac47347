package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per action and identifier.
// Counters live in Redis and expire with their window.
type RateLimiter struct {
	Redis  *redis.Client
	Max    int64
	Window time.Duration
}

// Allow records one attempt and reports whether it fits in the current window.
func (l *RateLimiter) Allow(ctx context.Context, action, identifier string) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, action, identifier)
	n, err := l.Redis.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.Redis.Expire(ctx, key, l.Window).Err(); err != nil {
			return false, err
		}
	}
	return n <= l.Max, nil
}
