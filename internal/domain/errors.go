package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is the category of a gateway error. The type decides whether an
// error propagates to the caller or degrades to a fallback response.
type ErrorType string

const (
	// ErrorTypeValidation indicates a malformed request (bad image, oversized
	// payload). Surfaced to the caller.
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeConfigAbsent indicates the provider credential is not
	// configured. Short-circuits before any provider call.
	ErrorTypeConfigAbsent ErrorType = "config_absent"

	// ErrorTypeCircuitOpen indicates the breaker rejected the call without
	// invoking the provider.
	ErrorTypeCircuitOpen ErrorType = "circuit_open"

	// ErrorTypeProvider indicates a transient provider failure while the
	// circuit was closed or half-open.
	ErrorTypeProvider ErrorType = "provider"

	// ErrorTypeBatchTooLarge indicates a batch exceeded the configured
	// maximum. Rejected up front, no partial processing.
	ErrorTypeBatchTooLarge ErrorType = "batch_too_large"

	// ErrorTypeStore indicates a cache or log store failure. Logged and
	// ignored, never blocks the primary response path.
	ErrorTypeStore ErrorType = "store"
)

// GatewayError is the canonical error carried across the AI subsystem.
type GatewayError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// HTTPStatusCode maps the error type to a status code for the REST surface.
// Only validation and batch-size errors reach the HTTP layer as failures.
func (e *GatewayError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeValidation, ErrorTypeBatchTooLarge:
		return http.StatusBadRequest
	case ErrorTypeCircuitOpen, ErrorTypeConfigAbsent:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewGatewayError creates a new gateway error.
func NewGatewayError(errType ErrorType, message string) *GatewayError {
	return &GatewayError{Type: errType, Message: message}
}

// Wrap attaches an underlying cause.
func (e *GatewayError) Wrap(err error) *GatewayError {
	e.Err = err
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(message string) *GatewayError {
	return NewGatewayError(ErrorTypeValidation, message)
}

// ErrProvider creates a provider error.
func ErrProvider(message string) *GatewayError {
	return NewGatewayError(ErrorTypeProvider, message)
}

// ErrBatchTooLarge creates a batch-size error.
func ErrBatchTooLarge(message string) *GatewayError {
	return NewGatewayError(ErrorTypeBatchTooLarge, message)
}

// IsType reports whether err is a GatewayError of the given type.
func IsType(err error, t ErrorType) bool {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Type == t
	}
	return false
}
