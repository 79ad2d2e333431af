package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiltvault/payments-gateway/internal/domain/payment"
	"github.com/tiltvault/payments-gateway/internal/external/square"
)

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// genericMessages are the client-facing texts used in hardened mode, keyed
// by response status. Full detail stays in the server logs.
var genericMessages = map[int]string{
	http.StatusBadRequest:            "Invalid request format",
	http.StatusUnauthorized:          "Authentication required",
	http.StatusForbidden:             "Access denied",
	http.StatusNotFound:              "Endpoint not found",
	http.StatusConflict:              "Duplicate request",
	http.StatusRequestEntityTooLarge: "Request too large",
	http.StatusTooManyRequests:       "Too many requests",
	http.StatusInternalServerError:   "Payment service temporarily unavailable",
	http.StatusServiceUnavailable:    "Payment service temporarily unavailable",
	http.StatusGatewayTimeout:        "Payment service timeout",
}

// writeError maps any pipeline failure onto the uniform error envelope.
// This is the single place where the error taxonomy meets HTTP.
func writeError(c *gin.Context, hardened bool, err error) {
	perr := classify(err)

	status := perr.HTTPStatus()
	slog.ErrorContext(c.Request.Context(), "request failed",
		slog.Int("status", status),
		slog.String("code", perr.Code),
		slog.String("detail", perr.Message),
	)

	message := perr.Message
	if hardened {
		if generic, ok := genericMessages[status]; ok {
			message = generic
		} else {
			message = "An error occurred"
		}
	}

	c.JSON(status, errorEnvelope{
		Success: false,
		Error:   errorBody{Message: message, Code: perr.Code},
	})
}

// classify translates provider-level errors into the tagged taxonomy.
// Errors already carrying a tag pass through unchanged.
func classify(err error) *payment.Error {
	var perr *payment.Error
	if errors.As(err, &perr) {
		return perr
	}

	var apiErr *square.APIError
	if errors.As(err, &apiErr) {
		return payment.UpstreamRejectedError(apiErr.StatusCode, apiErr.Code, apiErr.Detail)
	}

	switch {
	case errors.Is(err, square.ErrTimeout):
		return payment.TimeoutError(err)
	case errors.Is(err, square.ErrConnection):
		return payment.UnavailableError(err)
	case errors.Is(err, square.ErrInvalidResponse):
		return payment.InvalidResponseError()
	default:
		return payment.InternalError(err)
	}
}
