package redisx

import "time"

const (
	// Idempotency for checkout submission: idem:checkout:{external_id} -> order_id
	KeyIdemCheckout = "idem:checkout:%s"

	// Cached cart entry count per user: cart_count:{user_id}
	KeyCartCount = "cart_count:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLCartCount   = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
