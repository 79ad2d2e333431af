package payment

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind tags an Error with one of the gateway's failure categories. Every
// failure crossing the HTTP boundary is one of these; the mapping to status
// codes and envelope codes happens once, at the boundary.
type Kind int

const (
	KindValidation Kind = iota
	KindBadJSON
	KindConfig
	KindIdempotency
	KindDuplicate
	KindRateLimited
	KindPayloadTooLarge
	KindUpstreamRejected
	KindUnavailable
	KindTimeout
	KindInvalidResponse
	KindInternal
)

// Error is the tagged failure type carried through the payment pipeline.
// Message holds full internal detail; hardened deployments replace it with
// a generic string at the boundary while logging the original.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	// UpstreamStatus is set only for KindUpstreamRejected and is
	// propagated verbatim to the caller.
	UpstreamStatus int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus returns the response status code for the error.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindBadJSON, KindIdempotency:
		return http.StatusBadRequest
	case KindDuplicate:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUpstreamRejected:
		if e.UpstreamStatus != 0 {
			return e.UpstreamStatus
		}
		return http.StatusBadGateway
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func ValidationError(problems []string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    "VALIDATION_ERROR",
		Message: strings.Join(problems, "; "),
	}
}

func BadJSONError(err error) *Error {
	return &Error{
		Kind:    KindBadJSON,
		Code:    "INVALID_JSON",
		Message: fmt.Sprintf("invalid JSON in request body: %v", err),
	}
}

func MissingCredentialsError(name string) *Error {
	return &Error{
		Kind:    KindConfig,
		Code:    "MISSING_CREDENTIALS",
		Message: fmt.Sprintf("%s environment variable not set", name),
	}
}

func IdempotencyError(msg string) *Error {
	return &Error{Kind: KindIdempotency, Code: "IDEMPOTENCY_ERROR", Message: msg}
}

func DuplicateError() *Error {
	return &Error{
		Kind:    KindDuplicate,
		Code:    "DUPLICATE_REQUEST",
		Message: "duplicate request - payment already processed",
	}
}

func RateLimitedError() *Error {
	return &Error{Kind: KindRateLimited, Code: "RATE_LIMIT_EXCEEDED", Message: "too many requests"}
}

func PayloadTooLargeError() *Error {
	return &Error{Kind: KindPayloadTooLarge, Code: "PAYLOAD_TOO_LARGE", Message: "request too large"}
}

// UpstreamRejectedError carries the upstream's own status code and the
// first structured error code it returned, namespaced with SQUARE_.
func UpstreamRejectedError(status int, code, detail string) *Error {
	return &Error{
		Kind:           KindUpstreamRejected,
		Code:           "SQUARE_" + code,
		Message:        detail,
		UpstreamStatus: status,
	}
}

func UnavailableError(err error) *Error {
	return &Error{
		Kind:    KindUnavailable,
		Code:    "CONNECTION_ERROR",
		Message: fmt.Sprintf("cannot connect to payment service: %v", err),
	}
}

func TimeoutError(err error) *Error {
	return &Error{
		Kind:    KindTimeout,
		Code:    "TIMEOUT_ERROR",
		Message: fmt.Sprintf("payment service request timed out: %v", err),
	}
}

func InvalidResponseError() *Error {
	return &Error{
		Kind:    KindInvalidResponse,
		Code:    "INVALID_RESPONSE",
		Message: "invalid JSON response from payment service",
	}
}

func InternalError(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Code:    "INTERNAL_ERROR",
		Message: fmt.Sprintf("internal server error: %v", err),
	}
}
