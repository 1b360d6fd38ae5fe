package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies application errors by kind
type ErrorType string

const (
	// ErrorTypeValidation Request-level validation failures
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	// ErrorTypeParsing Amount/percentage/decimal parse failures
	ErrorTypeParsing ErrorType = "PARSING_ERROR"

	// ErrorTypeNotFound Storage lookups that found no row
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeDuplicate Inserts that collided with an existing row
	ErrorTypeDuplicate ErrorType = "DUPLICATE"
	// ErrorTypeDatabase Storage backend failures
	ErrorTypeDatabase ErrorType = "DATABASE_ERROR"

	// ErrorTypeConnector Upstream processor failures
	ErrorTypeConnector ErrorType = "CONNECTOR_ERROR"
	// ErrorTypeConfiguration Missing or unparsable merchant configuration
	ErrorTypeConfiguration ErrorType = "CONFIGURATION_ERROR"
	// ErrorTypeNotImplemented Decisions the router does not support yet
	ErrorTypeNotImplemented ErrorType = "NOT_IMPLEMENTED"
	// ErrorTypeInternal Everything else
	ErrorTypeInternal ErrorType = "INTERNAL_ERROR"
)

// AppError is the structured error value the router propagates. It carries a
// kind, a printable context chain, and an optional source cause; the chain is
// observability, not control flow.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key-value pair to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause attaches the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails attaches printable detail text
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// New creates an application error of the given kind
func New(errType ErrorType, message string, statusCode int) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewParsingError creates a parsing error from its cause
func NewParsingError(message string, cause error) *AppError {
	return New(ErrorTypeParsing, message, http.StatusInternalServerError).WithCause(cause)
}

// NewNotFoundError creates a not-found error for a resource
func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// NewPaymentNotFoundError creates the domain-typed not-found for payments
func NewPaymentNotFoundError(paymentID string) *AppError {
	return NewNotFoundError("payment").WithContext("payment_id", paymentID)
}

// NewDuplicateError creates a duplicate-insert error
func NewDuplicateError(resource string) *AppError {
	return New(ErrorTypeDuplicate, fmt.Sprintf("%s already exists", resource), http.StatusConflict)
}

// NewDuplicatePaymentError creates the domain-typed duplicate for payments
func NewDuplicatePaymentError(paymentID string) *AppError {
	return New(ErrorTypeDuplicate, "payment with the given id already exists", http.StatusConflict).
		WithContext("payment_id", paymentID)
}

// NewDatabaseError creates a storage backend error from its cause
func NewDatabaseError(message string, cause error) *AppError {
	return New(ErrorTypeDatabase, message, http.StatusInternalServerError).WithCause(cause)
}

// NewConnectorError creates an error for an upstream processor failure
func NewConnectorError(code, message string) *AppError {
	return New(ErrorTypeConnector, message, http.StatusPaymentRequired).WithContext("code", code)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string) *AppError {
	return New(ErrorTypeConfiguration, message, http.StatusInternalServerError)
}

// NewNotImplementedError creates a not-implemented error
func NewNotImplementedError(message string) *AppError {
	return New(ErrorTypeNotImplemented, message, http.StatusNotImplemented)
}

// NewInternalError creates an internal error from its cause
func NewInternalError(message string, cause error) *AppError {
	return New(ErrorTypeInternal, message, http.StatusInternalServerError).WithCause(cause)
}

// IsType reports whether err is an AppError of the given kind
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// AsAppError extracts an AppError from an error chain, wrapping unknown
// errors as internal
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError("unexpected error", err)
}
