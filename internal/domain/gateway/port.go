// Package gateway defines the port to the upstream payment processor.
package gateway

import "context"

// Provider is implemented by upstream processor clients. Implementations
// perform exactly one outbound call per invocation (plus bounded retries
// for transient upstream statuses) and report failures with their own
// typed errors; mapping into the gateway's error taxonomy happens at the
// HTTP boundary.
type Provider interface {
	CreatePayment(ctx context.Context, req ChargeRequest) (Charge, error)
}

// Money is an integer minor-unit amount with its currency, matching the
// upstream wire shape.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// ChargeRequest is the processor-agnostic payload for a single charge.
type ChargeRequest struct {
	SourceID       string
	IdempotencyKey string
	AmountCents    int64
	Currency       string
	ReferenceID    string
	Note           string
}

// Charge is the processor's view of an accepted payment.
type Charge struct {
	PaymentID   string
	Status      string // COMPLETED, APPROVED, FAILED, CANCELED
	OrderID     string
	AmountMoney Money
}
