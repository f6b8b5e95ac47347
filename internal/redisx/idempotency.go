package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RequestCache is a shortcut from a placement request id to the order it created.
// The database stays the source of truth.
type RequestCache struct {
	Redis *redis.Client
}

func (c *RequestCache) Lookup(ctx context.Context, requestID string) (int64, bool, error) {
	id, err := c.Redis.Get(ctx, fmt.Sprintf(KeyIdemOrderCreate, requestID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (c *RequestCache) Remember(ctx context.Context, requestID string, orderID int64) error {
	return c.Redis.Set(ctx, fmt.Sprintf(KeyIdemOrderCreate, requestID), orderID, TTLIdempotency).Err()
}

// Dedup marks event ids as processed for one consumer service.
type Dedup struct {
	Redis   *redis.Client
	Service string
}

// Claim reports true the first time id is seen.
func (d *Dedup) Claim(ctx context.Context, id string) (bool, error) {
	return d.Redis.SetNX(ctx, fmt.Sprintf(KeyDedup, d.Service, id), "1", TTLDedup).Result()
}

// Forget drops a claim so a failed event can be retried.
func (d *Dedup) Forget(ctx context.Context, id string) error {
	return d.Redis.Del(ctx, fmt.Sprintf(KeyDedup, d.Service, id)).Err()
}
