//go:build !integration

package square

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiltvault/payments-gateway/internal/domain/gateway"
)

func newTestClient(baseURL string) *Client {
	return New(ClientConfig{
		BaseURL:     baseURL,
		AccessToken: "test-token",
		APIVersion:  "2024-10-16",
		LocationID:  "LOC123",
		Timeout:     5 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 1,
			BaseDelay:   10 * time.Millisecond,
			MaxDelay:    100 * time.Millisecond,
		},
	})
}

func TestClient_CreatePayment(t *testing.T) {
	t.Run("successful charge", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v2/payments", r.URL.Path)
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Equal(t, "2024-10-16", r.Header.Get("Square-Version"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req createPaymentRequest
			err := json.NewDecoder(r.Body).Decode(&req)
			require.NoError(t, err)
			assert.Equal(t, "cnon:card-nonce-ok", req.SourceID)
			assert.Equal(t, int64(100), req.AmountMoney.Amount)
			assert.Equal(t, "USD", req.AmountMoney.Currency)
			assert.Equal(t, "LOC123", req.LocationID)
			assert.True(t, req.Autocomplete)

			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(paymentEnvelope{Payment: Payment{
				ID:          "pay_123",
				Status:      "COMPLETED",
				OrderID:     "ord_456",
				AmountMoney: Money{Amount: 100, Currency: "USD"},
			}})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		charge, err := client.CreatePayment(context.Background(), gateway.ChargeRequest{
			SourceID:       "cnon:card-nonce-ok",
			IdempotencyKey: "1735689600000-abc123def",
			AmountCents:    100,
			Currency:       "USD",
		})

		require.NoError(t, err)
		assert.Equal(t, "pay_123", charge.PaymentID)
		assert.Equal(t, "COMPLETED", charge.Status)
		assert.Equal(t, "ord_456", charge.OrderID)
		assert.Equal(t, int64(100), charge.AmountMoney.Amount)
	})

	t.Run("structured rejection surfaces code and detail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
			_, _ = w.Write([]byte(`{"errors":[{"category":"PAYMENT_METHOD_ERROR","code":"CARD_DECLINED","detail":"Card declined."}]}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.CreatePayment(context.Background(), gateway.ChargeRequest{})

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
		assert.Equal(t, "CARD_DECLINED", apiErr.Code)
		assert.Equal(t, "Card declined.", apiErr.Detail)
	})

	t.Run("structured rejection without detail gets fallback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"code":"INVALID_CARD"}]}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.CreatePayment(context.Background(), gateway.ChargeRequest{})

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "INVALID_CARD", apiErr.Code)
		assert.Equal(t, "Payment Failed.", apiErr.Detail)
	})

	t.Run("unstructured rejection keeps raw body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("access denied"))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.CreatePayment(context.Background(), gateway.ChargeRequest{})

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "API_ERROR", apiErr.Code)
		assert.Equal(t, "access denied", apiErr.Detail)
	})

	t.Run("malformed success body is invalid response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.CreatePayment(context.Background(), gateway.ChargeRequest{})

		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("timeout maps to ErrTimeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := New(ClientConfig{
			BaseURL:     server.URL,
			AccessToken: "test-token",
			Timeout:     50 * time.Millisecond,
			Retry:       RetryConfig{MaxAttempts: 1},
		})
		_, err := client.CreatePayment(context.Background(), gateway.ChargeRequest{})

		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("connection refused maps to ErrConnection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client := newTestClient(server.URL)
		_, err := client.CreatePayment(context.Background(), gateway.ChargeRequest{})

		assert.ErrorIs(t, err, ErrConnection)
	})

	t.Run("retries transient 503 then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(paymentEnvelope{Payment: Payment{ID: "pay_retry", Status: "COMPLETED"}})
		}))
		defer server.Close()

		client := New(ClientConfig{
			BaseURL:     server.URL,
			AccessToken: "test-token",
			Timeout:     time.Second,
			Retry: RetryConfig{
				MaxAttempts: 3,
				BaseDelay:   time.Millisecond,
				MaxDelay:    10 * time.Millisecond,
			},
		})
		charge, err := client.CreatePayment(context.Background(), gateway.ChargeRequest{})

		require.NoError(t, err)
		assert.Equal(t, "pay_retry", charge.PaymentID)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("does not retry a 402 decline", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusPaymentRequired)
			_, _ = w.Write([]byte(`{"errors":[{"code":"CARD_DECLINED","detail":"Card declined."}]}`))
		}))
		defer server.Close()

		client := New(ClientConfig{
			BaseURL:     server.URL,
			AccessToken: "test-token",
			Timeout:     time.Second,
			Retry: RetryConfig{
				MaxAttempts: 3,
				BaseDelay:   time.Millisecond,
				MaxDelay:    10 * time.Millisecond,
			},
		})
		_, err := client.CreatePayment(context.Background(), gateway.ChargeRequest{})

		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestClient_GetLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/locations/LOC123", r.URL.Path)
		_ = json.NewEncoder(w).Encode(locationEnvelope{Location: Location{
			ID:       "LOC123",
			Name:     "Main",
			Currency: "USD",
			Status:   "ACTIVE",
		}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	location, err := client.GetLocation(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "LOC123", location.ID)
	assert.Equal(t, "USD", location.Currency)
}

func TestClient_ListPayments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/payments", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "LOC123", q.Get("location_id"))
		assert.Equal(t, "DESC", q.Get("sort_order"))
		assert.Equal(t, "50", q.Get("limit"))
		assert.NotEmpty(t, q.Get("begin_time"))
		assert.NotEmpty(t, q.Get("end_time"))

		_ = json.NewEncoder(w).Encode(listPaymentsEnvelope{Payments: []Payment{
			{ID: "pay_1", Status: "COMPLETED", AmountMoney: Money{Amount: 1099, Currency: "USD"}},
			{ID: "pay_2", Status: "PENDING", AmountMoney: Money{Amount: 500, Currency: "USD"}},
		}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	end := time.Now()
	payments, err := client.ListPayments(context.Background(), end.Add(-24*time.Hour), end, 50)

	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "pay_1", payments[0].ID)
}

func TestClient_AccountBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/locations/LOC123" {
			_ = json.NewEncoder(w).Encode(locationEnvelope{Location: Location{ID: "LOC123", Currency: "USD"}})
			return
		}
		_ = json.NewEncoder(w).Encode(listPaymentsEnvelope{Payments: []Payment{
			{ID: "pay_1", Status: "COMPLETED", AmountMoney: Money{Amount: 1000}},
			{ID: "pay_2", Status: "COMPLETED", AmountMoney: Money{Amount: 250}},
			{ID: "pay_3", Status: "PENDING", AmountMoney: Money{Amount: 99}},
			{ID: "pay_4", Status: "FAILED", AmountMoney: Money{Amount: 77}},
		}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	balance, err := client.AccountBalance(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "LOC123", balance.Location.ID)
	assert.Equal(t, int64(1250), balance.TotalCompleted)
	assert.Equal(t, int64(99), balance.TotalPending)
	assert.Len(t, balance.CompletedPayments, 2)
	assert.Len(t, balance.PendingPayments, 1)
	assert.Equal(t, 4, balance.PaymentCount)
}

func TestClient_AccountBalance_FailsWhole(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/locations/LOC123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors":[{"code":"UNAUTHORIZED","detail":"Invalid token."}]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(listPaymentsEnvelope{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.AccountBalance(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
}
