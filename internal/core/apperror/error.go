// Package apperror is the error taxonomy for the service. Every business
// error is an AppError so the HTTP layer can map it to a consistent
// problem-style JSON response.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// Infrastructure (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Input validation (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Business rules (422)
	CodeBusinessRule           = "BUSINESS_RULE_VIOLATION"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeInvalidQuantity        = "INVALID_QUANTITY"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// AuthN / authZ (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	CodeNotFound = "NOT_FOUND"

	// Conflicts (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError carries a machine-readable code, a client-safe message, and a
// suggested HTTP status. Err holds the internal cause and never reaches
// the client.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap supports errors.Is/As over the cause chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail attaches a key-value pair to the error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause records the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func newError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// NewValidation reports malformed or missing input (400).
func NewValidation(message string) *AppError {
	return newError(CodeValidation, message, http.StatusBadRequest)
}

// NewNotFound reports a missing entity (404).
func NewNotFound(entity string, id any) *AppError {
	return newError(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound).
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewBusinessRule reports a domain rule violation under a caller-chosen code (422).
func NewBusinessRule(code, message string) *AppError {
	return newError(code, message, http.StatusUnprocessableEntity)
}

// NewInvalidTransition reports a state change the lifecycle forbids (422).
func NewInvalidTransition(entity, from, to string) *AppError {
	msg := fmt.Sprintf("%s cannot move from %s to %s", entity, from, to)
	return newError(CodeInvalidTransition, msg, http.StatusUnprocessableEntity).
		WithDetail("entity", entity).
		WithDetail("from", from).
		WithDetail("to", to)
}

// NewInvalidQuantity reports a quantity outside its allowed bounds (422).
func NewInvalidQuantity(message string) *AppError {
	return newError(CodeInvalidQuantity, message, http.StatusUnprocessableEntity)
}

// NewInsufficientStock reports that a decrement would take stock negative (422).
func NewInsufficientStock(productID string, requested, available int64) *AppError {
	return newError(CodeInsufficientStock, "Insufficient stock", http.StatusUnprocessableEntity).
		WithDetail("product_id", productID).
		WithDetail("requested", requested).
		WithDetail("available", available)
}

// NewConcurrentModification reports a lost optimistic-lock race (409).
func NewConcurrentModification(entity string, id any) *AppError {
	const msg = "Record was modified by another user. Please refresh and try again."
	return newError(CodeConcurrentModification, msg, http.StatusConflict).
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewInternal wraps an unexpected error; the cause is logged, not exposed (500).
func NewInternal(err error) *AppError {
	return newError(CodeInternal, "Internal server error", http.StatusInternalServerError).
		WithCause(err)
}

// NewUnauthorized reports a missing or invalid credential (401).
func NewUnauthorized(message string) *AppError {
	return newError(CodeUnauthorized, message, http.StatusUnauthorized)
}

// NewForbidden reports an operation the principal may not perform (403).
func NewForbidden(message string) *AppError {
	return newError(CodeForbidden, message, http.StatusForbidden)
}

// NewConflict reports a state conflict (409).
func NewConflict(message string) *AppError {
	return newError(CodeConflict, message, http.StatusConflict)
}

// NewDuplicate reports a unique constraint violation (409).
func NewDuplicate(entity, field, value string) *AppError {
	msg := fmt.Sprintf("%s with this %s already exists", entity, field)
	return newError(CodeDuplicate, msg, http.StatusConflict).
		WithDetail("entity", entity).
		WithDetail("field", field).
		WithDetail("value", value)
}

// AsAppError extracts an AppError from the error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsAppError reports whether the chain contains an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// GetHTTPStatus maps any error to an HTTP status.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func hasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool               { return hasCode(err, CodeNotFound) }
func IsDuplicate(err error) bool              { return hasCode(err, CodeDuplicate) }
func IsInvalidTransition(err error) bool      { return hasCode(err, CodeInvalidTransition) }
func IsInsufficientStock(err error) bool      { return hasCode(err, CodeInsufficientStock) }
func IsConcurrentModification(err error) bool { return hasCode(err, CodeConcurrentModification) }
