package redisx

import "time"

const (
	// idem:order:create:{request_id} -> order id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// lock:payout:seller:{seller_id}
	KeyPayoutLock = "lock:payout:seller:%d"

	// ratelimit:{action}:{identifier} -> attempts in the current window
	KeyRateLimit = "ratelimit:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
