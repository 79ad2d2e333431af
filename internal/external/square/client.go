// Package square is the HTTP client for the Square Connect API. It is the
// only place in the gateway that talks to the upstream processor.
package square

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/tiltvault/payments-gateway/internal/domain/gateway"
	"github.com/tiltvault/payments-gateway/pkg/metrics"
)

// ClientConfig holds configuration for the Square client.
type ClientConfig struct {
	BaseURL     string
	AccessToken string
	APIVersion  string
	LocationID  string
	Timeout     time.Duration
	Retry       RetryConfig
}

// Client calls the Square Connect API with bearer auth, a versioned API
// header and a fixed timeout. It implements gateway.Provider.
type Client struct {
	baseURL     string
	accessToken string
	apiVersion  string
	locationID  string
	httpClient  *http.Client
	retry       RetryConfig
}

func New(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		apiVersion:  cfg.APIVersion,
		locationID:  cfg.LocationID,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		retry:       cfg.Retry,
	}
}

// CreatePayment submits one charge to POST /v2/payments. Transient upstream
// statuses (429/502/503/504) are retried with backoff under the same
// idempotency key; everything else surfaces after a single attempt.
func (c *Client) CreatePayment(ctx context.Context, req gateway.ChargeRequest) (gateway.Charge, error) {
	body := createPaymentRequest{
		SourceID:       req.SourceID,
		IdempotencyKey: req.IdempotencyKey,
		AmountMoney: Money{
			Amount:   req.AmountCents,
			Currency: req.Currency,
		},
		LocationID:   c.locationID,
		Autocomplete: true,
		ReferenceID:  req.ReferenceID,
		Note:         req.Note,
	}

	var out paymentEnvelope
	err := DoWithRetry(ctx, c.retry, func() error {
		return c.do(ctx, http.MethodPost, "/v2/payments", "create_payment", body, &out)
	})
	if err != nil {
		return gateway.Charge{}, err
	}

	p := out.Payment
	return gateway.Charge{
		PaymentID: p.ID,
		Status:    p.Status,
		OrderID:   p.OrderID,
		AmountMoney: gateway.Money{
			Amount:   p.AmountMoney.Amount,
			Currency: p.AmountMoney.Currency,
		},
	}, nil
}

// GetLocation fetches the configured location, which carries the account
// currency and status.
func (c *Client) GetLocation(ctx context.Context) (Location, error) {
	var out locationEnvelope
	path := "/v2/locations/" + c.locationID
	if err := c.do(ctx, http.MethodGet, path, "get_location", nil, &out); err != nil {
		return Location{}, err
	}
	return out.Location, nil
}

// ListPayments returns payments for the configured location between begin
// and end, newest first, capped at limit.
func (c *Client) ListPayments(ctx context.Context, begin, end time.Time, limit int) ([]Payment, error) {
	q := listPaymentsQuery{
		LocationID: c.locationID,
		BeginTime:  begin.UTC().Format(time.RFC3339),
		EndTime:    end.UTC().Format(time.RFC3339),
		SortOrder:  "DESC",
		Limit:      limit,
	}
	values, err := query.Values(q)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	var out listPaymentsEnvelope
	path := "/v2/payments?" + values.Encode()
	if err := c.do(ctx, http.MethodGet, path, "list_payments", nil, &out); err != nil {
		return nil, err
	}
	return out.Payments, nil
}

// do performs one upstream call and decodes the response into out. Failures
// are returned as the package's typed errors: transport problems are
// classified, rejections become *APIError (wrapped with ErrTransient for
// retryable statuses), and unparsable success bodies become
// ErrInvalidResponse.
func (c *Client) do(ctx context.Context, method, path, endpoint string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		j, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(j)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Square-Version", c.apiVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues(endpoint, "transport_error").Observe(time.Since(start).Seconds())
		return classifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.UpstreamRequestDuration.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode/100 != 2 {
		return c.rejectionError(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// rejectionError extracts the first structured error from an upstream error
// body, falling back to the raw body or a plain HTTP status string.
func (c *Client) rejectionError(status int, raw []byte) error {
	apiErr := &APIError{
		StatusCode: status,
		Code:       "API_ERROR",
		Detail:     fmt.Sprintf("HTTP %d", status),
	}

	var envelope errorEnvelope
	if len(raw) > 0 && json.Unmarshal(raw, &envelope) == nil {
		switch {
		case len(envelope.Errors) > 0:
			first := envelope.Errors[0]
			if first.Code != "" {
				apiErr.Code = first.Code
			}
			if first.Detail != "" {
				apiErr.Detail = first.Detail
			} else {
				apiErr.Detail = "Payment Failed."
			}
		case envelope.Detail != "":
			apiErr.Detail = envelope.Detail
		}
	} else if len(raw) > 0 {
		apiErr.Detail = string(raw)
	}

	if isTransientStatus(status) {
		return fmt.Errorf("%w: %w", ErrTransient, apiErr)
	}
	return apiErr
}

func isTransientStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// classifyTransport maps transport-level failures onto the package's
// sentinel errors.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}
