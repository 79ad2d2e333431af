package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiltvault/payments-gateway/internal/domain/payment"
)

type paymentProcessor interface {
	Process(ctx context.Context, raw map[string]any, clientIP string) (payment.Receipt, error)
}

// successEnvelope flattens the receipt's fields to the top level next to
// the success flag, which is the shape callers bind against.
type successEnvelope struct {
	Success bool `json:"success"`
	payment.Receipt
}

type PaymentHandler struct {
	service      paymentProcessor
	maxBodyBytes int64
	hardened     bool
}

func NewPaymentHandler(service paymentProcessor, maxBodyBytes int64, hardened bool) *PaymentHandler {
	return &PaymentHandler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
		hardened:     hardened,
	}
}

// Process handles POST /process-payment. An empty body is accepted and
// treated as an empty payload so that field-level validation reports the
// missing fields instead of a JSON parse error.
func (h *PaymentHandler) Process(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(c, h.hardened, payment.PayloadTooLargeError())
			return
		}
		writeError(c, h.hardened, payment.InternalError(err))
		return
	}

	raw := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			writeError(c, h.hardened, payment.BadJSONError(err))
			return
		}
	}

	receipt, err := h.service.Process(c.Request.Context(), raw, c.ClientIP())
	if err != nil {
		writeError(c, h.hardened, err)
		return
	}

	c.JSON(http.StatusOK, successEnvelope{Success: true, Receipt: receipt})
}
