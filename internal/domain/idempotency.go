package domain

import "time"

// IdempotencyTTL is how long a stored response is replayed
const IdempotencyTTL = 24 * time.Hour

// IdempotencyRecord stores the response of the first successful request for a key
type IdempotencyRecord struct {
	Key        string
	MerchantID string
	Response   []byte
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// IsExpired reports whether the record is no longer valid at now
func (r *IdempotencyRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
