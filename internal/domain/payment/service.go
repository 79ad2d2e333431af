package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tiltvault/payments-gateway/internal/domain/gateway"
	"github.com/tiltvault/payments-gateway/internal/idempotency"
	"github.com/tiltvault/payments-gateway/internal/kvstore"
	"github.com/tiltvault/payments-gateway/internal/ratelimit"
	"github.com/tiltvault/payments-gateway/pkg/metrics"
)

// Receipt is the gateway's successful payment response payload.
type Receipt struct {
	PaymentID     string        `json:"payment_id"`
	Status        string        `json:"status"`
	OrderID       string        `json:"order_id,omitempty"`
	TransactionID string        `json:"transaction_id"`
	ReferenceID   string        `json:"reference_id"`
	Message       string        `json:"message"`
	AmountMoney   gateway.Money `json:"amount_money"`
}

// ServiceConfig carries the immutable knobs the pipeline needs.
type ServiceConfig struct {
	Bounds         Bounds
	AccessTokenSet bool
	LocationIDSet  bool
	MetadataTTL    time.Duration
}

// Service runs the payment pipeline: rate limit, normalize, idempotency
// guard, upstream invocation. Provider and store failures flow out as the
// provider's own typed errors; translation to HTTP happens at the boundary.
type Service struct {
	provider gateway.Provider
	guard    *idempotency.Guard
	limiter  *ratelimit.Limiter
	meta     kvstore.Store
	cfg      ServiceConfig
}

func NewService(provider gateway.Provider, guard *idempotency.Guard, limiter *ratelimit.Limiter, meta kvstore.Store, cfg ServiceConfig) *Service {
	return &Service{
		provider: provider,
		guard:    guard,
		limiter:  limiter,
		meta:     meta,
		cfg:      cfg,
	}
}

// Process validates raw, enforces idempotency and limits, and invokes the
// upstream processor exactly once. clientIP keys the rate and velocity
// limits.
func (s *Service) Process(ctx context.Context, raw map[string]any, clientIP string) (Receipt, error) {
	slog.InfoContext(ctx, "processing payment", slog.Any("request", SanitizeForLog(raw)))

	if !s.cfg.AccessTokenSet {
		return Receipt{}, MissingCredentialsError("SQUARE_ACCESS_TOKEN")
	}
	if !s.cfg.LocationIDSet {
		return Receipt{}, MissingCredentialsError("SQUARE_LOCATION_ID")
	}

	if !s.limiter.AllowRequest(ctx, clientIP) {
		metrics.PaymentsTotal.WithLabelValues("rate_limited").Inc()
		return Receipt{}, RateLimitedError()
	}

	req, problems := Normalize(raw, s.cfg.Bounds)
	if len(problems) == 0 {
		if msg, ok := s.limiter.CheckVelocity(ctx, clientIP, req.Amount); !ok {
			problems = append(problems, msg)
		}
	}
	if len(problems) > 0 {
		metrics.PaymentsTotal.WithLabelValues("validation_error").Inc()
		return Receipt{}, ValidationError(problems)
	}

	key, err := s.guard.EnsureKey(ctx, req.IdempotencyKey, req.Cents())
	if err != nil {
		switch {
		case errors.Is(err, idempotency.ErrDuplicate):
			metrics.PaymentsTotal.WithLabelValues("duplicate").Inc()
			return Receipt{}, DuplicateError()
		default:
			metrics.PaymentsTotal.WithLabelValues("idempotency_error").Inc()
			return Receipt{}, IdempotencyError(err.Error())
		}
	}

	referenceID := NewReferenceID()
	s.recordMetadata(ctx, referenceID, req, clientIP)

	charge, err := s.provider.CreatePayment(ctx, gateway.ChargeRequest{
		SourceID:       req.SourceID,
		IdempotencyKey: key,
		AmountCents:    req.Cents(),
		Currency:       req.Currency,
		ReferenceID:    referenceID,
		Note:           buildNote(req),
	})
	if err != nil {
		metrics.PaymentsTotal.WithLabelValues("upstream_error").Inc()
		return Receipt{}, err
	}

	metrics.PaymentsTotal.WithLabelValues("success").Inc()
	slog.InfoContext(ctx, "payment processed",
		slog.String("payment_id", charge.PaymentID),
		slog.String("status", charge.Status),
		slog.String("reference_id", referenceID),
	)

	return Receipt{
		PaymentID:     charge.PaymentID,
		Status:        charge.Status,
		OrderID:       charge.OrderID,
		TransactionID: charge.PaymentID,
		ReferenceID:   referenceID,
		Message:       "Payment processed successfully",
		AmountMoney:   charge.AmountMoney,
	}, nil
}

const referenceAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewReferenceID generates an internal tracking ID. The upstream receives
// this instead of any caller PII.
func NewReferenceID() string {
	suffix := make([]byte, 16)
	for i := range suffix {
		suffix[i] = referenceAlphabet[rand.Intn(len(referenceAlphabet))]
	}
	return fmt.Sprintf("ref_%d_%s", time.Now().Unix(), suffix)
}

// buildNote assembles the upstream note from non-PII fields only.
func buildNote(req Request) string {
	if req.RiskProfile == "" {
		return ""
	}
	return "risk:" + SanitizeNoteValue(req.RiskProfile)
}

// paymentMetadata is what the gateway remembers about a payment. PII stays
// here, in the local store, and is never sent upstream.
type paymentMetadata struct {
	Timestamp     int64  `json:"timestamp"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	ClientIP      string `json:"client_ip"`
	RiskProfile   string `json:"risk_profile,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
	UserEmail     string `json:"user_email,omitempty"`
}

func (s *Service) recordMetadata(ctx context.Context, referenceID string, req Request, clientIP string) {
	if s.meta == nil {
		return
	}

	raw, err := json.Marshal(paymentMetadata{
		Timestamp:     time.Now().Unix(),
		Amount:        req.Amount.String(),
		Currency:      req.Currency,
		ClientIP:      clientIP,
		RiskProfile:   req.RiskProfile,
		WalletAddress: req.WalletAddress,
		UserEmail:     req.UserEmail,
	})
	if err != nil {
		return
	}
	if err := s.meta.SetTTL(ctx, "payment_meta:"+referenceID, raw, s.cfg.MetadataTTL); err != nil {
		slog.WarnContext(ctx, "failed to store payment metadata",
			slog.String("reference_id", referenceID), slog.Any("error", err))
	}
}
