package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tiltvault/payments-gateway/internal/domain/payment"
	"github.com/tiltvault/payments-gateway/internal/external/square"
)

type balanceFetcher interface {
	AccountBalance(ctx context.Context) (square.AccountBalance, error)
}

type BalanceHandler struct {
	client         balanceFetcher
	credentialsSet bool
	hardened       bool
}

func NewBalanceHandler(client balanceFetcher, credentialsSet, hardened bool) *BalanceHandler {
	return &BalanceHandler{
		client:         client,
		credentialsSet: credentialsSet,
		hardened:       hardened,
	}
}

// Balance handles GET /balance. Both upstream fetches must succeed; a
// partial view of account activity is worse than an explicit failure.
func (h *BalanceHandler) Balance(c *gin.Context) {
	if !h.credentialsSet {
		writeError(c, h.hardened, payment.MissingCredentialsError("SQUARE_ACCESS_TOKEN"))
		return
	}

	balance, err := h.client.AccountBalance(c.Request.Context())
	if err != nil {
		writeError(c, h.hardened, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"balance":   balance,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
