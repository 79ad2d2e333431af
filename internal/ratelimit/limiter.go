// Package ratelimit enforces per-client request and spending limits backed
// by the shared key-value store.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiltvault/payments-gateway/internal/kvstore"
)

// Limits configures the limiter. Zero-valued limits disable the
// corresponding check.
type Limits struct {
	RequestsPerMinute int
	HourlyAmount      decimal.Decimal
	DailyAmount       decimal.Decimal
}

// Limiter tracks request counts and spending velocity per client
// identifier (normally the client IP). Every check fails open on store
// errors: limiting is protective, not payment-blocking.
type Limiter struct {
	store  kvstore.Store
	limits Limits
}

func New(store kvstore.Store, limits Limits) *Limiter {
	return &Limiter{store: store, limits: limits}
}

// AllowRequest reports whether the client is within the per-minute request
// budget, counting this request.
func (l *Limiter) AllowRequest(ctx context.Context, clientID string) bool {
	if l.store == nil || l.limits.RequestsPerMinute <= 0 {
		return true
	}

	count, err := l.store.Incr(ctx, "rate_limit:"+clientID, time.Minute)
	if err != nil {
		slog.WarnContext(ctx, "rate limit check failed, failing open", slog.Any("error", err))
		return true
	}
	return count <= int64(l.limits.RequestsPerMinute)
}

// CheckVelocity verifies the hourly and daily spending totals for the
// client would stay within limits after adding amount, and records the new
// totals. Returns a client-facing problem string on breach.
//
// The read-compare-write here is not atomic; overlapping requests can
// slightly overshoot the limit. That matches the best-effort contract of
// velocity limiting and keeps the store interface small.
func (l *Limiter) CheckVelocity(ctx context.Context, clientID string, amount decimal.Decimal) (string, bool) {
	if l.store == nil {
		return "", true
	}

	now := time.Now().UTC()
	hourKey := fmt.Sprintf("hourly_limit:%s:%s", clientID, now.Format("2006-01-02-15"))
	dayKey := fmt.Sprintf("daily_limit:%s:%s", clientID, now.Format("2006-01-02"))

	hourly, ok := l.total(ctx, hourKey)
	if !ok {
		return "", true
	}
	daily, ok := l.total(ctx, dayKey)
	if !ok {
		return "", true
	}

	if l.limits.HourlyAmount.Sign() > 0 && hourly.Add(amount).GreaterThan(l.limits.HourlyAmount) {
		return fmt.Sprintf("hourly transaction limit of $%s exceeded", l.limits.HourlyAmount), false
	}
	if l.limits.DailyAmount.Sign() > 0 && daily.Add(amount).GreaterThan(l.limits.DailyAmount) {
		return fmt.Sprintf("daily transaction limit of $%s exceeded", l.limits.DailyAmount), false
	}

	if err := l.store.SetTTL(ctx, hourKey, []byte(hourly.Add(amount).String()), time.Hour); err != nil {
		slog.WarnContext(ctx, "velocity update failed", slog.Any("error", err))
	}
	if err := l.store.SetTTL(ctx, dayKey, []byte(daily.Add(amount).String()), 24*time.Hour); err != nil {
		slog.WarnContext(ctx, "velocity update failed", slog.Any("error", err))
	}

	return "", true
}

// total reads a stored running total; ok=false means the store failed and
// the caller should skip velocity checks for this request.
func (l *Limiter) total(ctx context.Context, key string) (decimal.Decimal, bool) {
	raw, found, err := l.store.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "velocity check failed, failing open", slog.Any("error", err))
		return decimal.Decimal{}, false
	}
	if !found {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		slog.WarnContext(ctx, "velocity counter corrupted, resetting", slog.String("key", key))
		return decimal.Zero, true
	}
	return d, true
}
