// Package kvstore provides the shared key-value store used by the
// idempotency guard, the rate limiter and the payment metadata recorder.
//
// Implementations must make PutIfAbsent atomic: concurrent calls with the
// same key must agree on a single winner. That property is what closes the
// race between concurrent payment submissions carrying the same
// idempotency key.
package kvstore

import (
	"context"
	"time"
)

// Store is a minimal TTL-aware key-value store. Expired entries behave as
// absent. Callers are expected to fail open when a Store returns an error:
// store unavailability must never block payments.
type Store interface {
	// Get returns the live value for key, or found=false when the key is
	// absent or expired.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// SetTTL stores value under key, replacing any previous value. A zero
	// ttl means no expiry.
	SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// PutIfAbsent atomically stores value unless key already holds a live
	// value. It returns the pre-existing value and stored=false when the
	// key was already taken.
	PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (existing []byte, stored bool, err error)

	// Incr atomically increments the integer counter at key and returns
	// the new total. The ttl is applied when the counter is created.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	Close() error
}

// entry is the stored representation shared by implementations: a payload
// plus an absolute expiry (zero means no expiry).
type entry struct {
	Value     []byte `json:"v"`
	ExpiresAt int64  `json:"exp,omitempty"` // unix nanos
}

func (e entry) expired(now time.Time) bool {
	return e.ExpiresAt != 0 && now.UnixNano() >= e.ExpiresAt
}

func newEntry(value []byte, ttl time.Duration, now time.Time) entry {
	e := entry{Value: value}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl).UnixNano()
	}
	return e
}
