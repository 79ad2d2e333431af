// Package idempotency implements the key guard that makes payment
// submissions safe to retry.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tiltvault/payments-gateway/internal/kvstore"
	"github.com/tiltvault/payments-gateway/pkg/metrics"
)

var (
	// ErrDuplicate means the key was already seen with the same amount:
	// the payment was (or is being) processed and must not be re-charged.
	ErrDuplicate = errors.New("duplicate request - payment already processed")

	// ErrAmountMismatch means the key was reused with a different amount,
	// which is always a client bug.
	ErrAmountMismatch = errors.New("idempotency_key reused with different amount")

	// ErrMalformedKey is returned in strict mode for keys outside the
	// accepted length bounds.
	ErrMalformedKey = errors.New("idempotency_key must be 20-128 characters")
)

const (
	strictMinKeyLen = 20
	strictMaxKeyLen = 128

	keyAlphabet     = "abcdefghijklmnopqrstuvwxyz0123456789"
	randomSuffixLen = 9
)

// Guard validates, generates and deduplicates idempotency keys against a
// shared store. A nil-store Guard still generates and passes keys through,
// leaving enforcement to the upstream processor.
type Guard struct {
	store  kvstore.Store
	ttl    time.Duration
	strict bool
}

func NewGuard(store kvstore.Store, ttl time.Duration, strict bool) *Guard {
	return &Guard{store: store, ttl: ttl, strict: strict}
}

// GenerateKey produces a process-unique idempotency key in the
// {millisecond_timestamp}-{9 random lowercase-alphanumeric} format.
func GenerateKey() string {
	suffix := make([]byte, randomSuffixLen)
	for i := range suffix {
		suffix[i] = keyAlphabet[rand.Intn(len(keyAlphabet))]
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}

// EnsureKey returns the effective idempotency key for a request, generating
// one when absent, and records key→amount in the store with a TTL.
//
// The store lookup and insert are a single atomic check-and-set, so two
// concurrent requests racing on the same key cannot both proceed upstream.
// Store failures are logged and treated as "not found": an unavailable
// store must never block payments.
func (g *Guard) EnsureKey(ctx context.Context, key string, amountCents int64) (string, error) {
	if key == "" {
		key = GenerateKey()
		slog.DebugContext(ctx, "generated idempotency key")
	} else if g.strict && (len(key) < strictMinKeyLen || len(key) > strictMaxKeyLen) {
		return "", ErrMalformedKey
	}

	if g.store == nil {
		return key, nil
	}

	amount := []byte(fmt.Sprintf("%d", amountCents))
	existing, stored, err := g.store.PutIfAbsent(ctx, storageKey(key), amount, g.ttl)
	if err != nil {
		metrics.IdempotencyHits.WithLabelValues("store_error").Inc()
		slog.WarnContext(ctx, "idempotency store unavailable, failing open", slog.Any("error", err))
		return key, nil
	}
	if !stored {
		if string(existing) != string(amount) {
			metrics.IdempotencyHits.WithLabelValues("mismatch").Inc()
			return "", ErrAmountMismatch
		}
		metrics.IdempotencyHits.WithLabelValues("duplicate").Inc()
		return "", ErrDuplicate
	}

	metrics.IdempotencyHits.WithLabelValues("new").Inc()
	return key, nil
}

// storageKey hashes the raw key so caller-chosen values never land in the
// store verbatim.
func storageKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "idempotency:" + hex.EncodeToString(sum[:])
}
