package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiltvault/payments-gateway/internal/external/square"
)

type stubBalanceFetcher struct {
	balance square.AccountBalance
	err     error
}

func (s *stubBalanceFetcher) AccountBalance(context.Context) (square.AccountBalance, error) {
	return s.balance, s.err
}

func getBalance(t *testing.T, handler *BalanceHandler) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.GET("/balance", handler.Balance)

	req := httptest.NewRequest(http.MethodGet, "/balance", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestBalanceHandler(t *testing.T) {
	t.Run("returns aggregated balance", func(t *testing.T) {
		handler := NewBalanceHandler(&stubBalanceFetcher{balance: square.AccountBalance{
			Location:       square.Location{ID: "LOC123", Currency: "USD"},
			TotalCompleted: 1250,
			TotalPending:   99,
			PaymentCount:   3,
		}}, true, false)

		rec := getBalance(t, handler)

		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])

		balance := body["balance"].(map[string]any)
		assert.Equal(t, float64(1250), balance["total_completed_cents"])
		assert.Equal(t, float64(99), balance["total_pending_cents"])
	})

	t.Run("missing credentials", func(t *testing.T) {
		handler := NewBalanceHandler(&stubBalanceFetcher{}, false, false)

		rec := getBalance(t, handler)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "MISSING_CREDENTIALS", decodeError(t, rec).Error.Code)
	})

	t.Run("upstream failure fails the whole request", func(t *testing.T) {
		handler := NewBalanceHandler(&stubBalanceFetcher{err: &square.APIError{
			StatusCode: http.StatusUnauthorized,
			Code:       "UNAUTHORIZED",
			Detail:     "Invalid token.",
		}}, true, false)

		rec := getBalance(t, handler)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "SQUARE_UNAUTHORIZED", decodeError(t, rec).Error.Code)
	})
}
