package payment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// fieldAliases maps each canonical field to the request keys it may arrive
// under. Browser SDK payloads, legacy clients and server-side callers all
// spell these differently; the table is consulted exactly once, during
// normalization.
var fieldAliases = map[string][]string{
	"amount":          {"amount"},
	"currency":        {"currency"},
	"source_id":       {"source_id", "sourceId", "token"},
	"idempotency_key": {"idempotency_key", "idempotencyKey", "orderId"},
	"risk_profile":    {"risk_profile", "riskProfile"},
	"wallet_address":  {"wallet_address", "walletAddress"},
	"user_email":      {"user_email", "userEmail", "email"},
}

var (
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	evmAddressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	currencyPattern   = regexp.MustCompile(`^[a-zA-Z]{3}$`)
)

// minSourceTokenLen is the shortest plausible tokenized-card reference.
// Authenticity is the upstream's job; this only rejects obvious garbage.
const minSourceTokenLen = 10

// Bounds are the configured amount limits in major currency units.
type Bounds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Request is a validated, normalized payment request.
type Request struct {
	Amount         decimal.Decimal
	Currency       string
	SourceID       string
	IdempotencyKey string

	// Optional caller metadata. Never forwarded to the upstream note;
	// wallet address and email are PII and stay in the metadata store.
	RiskProfile   string
	WalletAddress string
	UserEmail     string
}

// Cents returns the amount in integer minor units. Decimal arithmetic keeps
// the conversion exact for amounts with at most two fractional digits;
// anything beyond the cent is truncated.
func (r Request) Cents() int64 {
	return r.Amount.Shift(2).IntPart()
}

// Normalize extracts and validates a payment request from a loosely-typed
// payload. It is a pure function: all problems are collected and returned
// together so the caller sees the complete list in one response.
func Normalize(raw map[string]any, bounds Bounds) (Request, []string) {
	var req Request
	var problems []string

	amount, amountPresent := lookup(raw, "amount")
	switch {
	case !amountPresent:
		problems = append(problems, "amount is required")
	default:
		d, err := parseAmount(amount)
		switch {
		case err != nil:
			problems = append(problems, "amount must be a valid number")
		case d.Sign() <= 0:
			problems = append(problems, "amount must be greater than zero")
		case d.LessThan(bounds.Min):
			problems = append(problems, fmt.Sprintf("amount must be at least $%s", bounds.Min))
		case d.GreaterThan(bounds.Max):
			problems = append(problems, fmt.Sprintf("amount exceeds transaction limit of $%s", bounds.Max))
		default:
			req.Amount = d
		}
	}

	req.Currency = "USD"
	if v, ok := lookup(raw, "currency"); ok {
		s, isString := v.(string)
		if !isString || !currencyPattern.MatchString(s) {
			problems = append(problems, "currency must be a 3-letter ISO code (e.g., USD)")
		} else {
			req.Currency = strings.ToUpper(s)
		}
	}

	if v, ok := lookup(raw, "source_id"); ok {
		s, isString := v.(string)
		switch {
		case !isString || s == "":
			problems = append(problems, "source_id is required")
		case len(s) < minSourceTokenLen:
			problems = append(problems, "source_id must be a valid payment token")
		default:
			req.SourceID = s
		}
	} else {
		problems = append(problems, "source_id is required")
	}

	if v, ok := lookup(raw, "idempotency_key"); ok {
		if s, isString := v.(string); isString {
			req.IdempotencyKey = s
		}
	}

	if v, ok := lookup(raw, "risk_profile"); ok {
		if s, isString := v.(string); isString {
			req.RiskProfile = s
		}
	}

	if v, ok := lookup(raw, "wallet_address"); ok {
		s, isString := v.(string)
		if !isString || !evmAddressPattern.MatchString(s) {
			problems = append(problems, "invalid wallet address format")
		} else {
			req.WalletAddress = s
		}
	}

	if v, ok := lookup(raw, "user_email"); ok {
		s, isString := v.(string)
		if !isString || len(s) > 254 || !emailPattern.MatchString(s) {
			problems = append(problems, "invalid email format")
		} else {
			req.UserEmail = s
		}
	}

	return req, problems
}

// lookup returns the first alias of field present in raw with a non-nil,
// non-empty value.
func lookup(raw map[string]any, field string) (any, bool) {
	for _, key := range fieldAliases[field] {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func parseAmount(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case string:
		return decimal.NewFromString(n)
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported amount type %T", v)
	}
}
