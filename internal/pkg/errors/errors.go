// Package errors carries the stable error codes of the API envelope and the
// HTTP status each one maps to.
package errors

import (
	"fmt"
	"net/http"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Denial reports whether the error is a plan limit the caller can lift by
// upgrading or waiting for the next period
func (e *AppError) Denial() bool {
	switch e.Code {
	case ErrCodeMessageLimit, ErrCodeTokenLimit, ErrCodeModuleNotInPlan:
		return true
	}
	return false
}

// Retryable reports whether repeating the same request may succeed
func (e *AppError) Retryable() bool {
	switch e.Code {
	case ErrCodeServiceUnavailable, ErrCodeRateLimited, ErrCodeProviderAPI:
		return true
	}
	return false
}

const (
	ErrCodeInternal             = "INTERNAL_ERROR"
	ErrCodeBadRequest           = "BAD_REQUEST"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeConflict             = "CONFLICT"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeDatabase             = "DATABASE_ERROR"
	ErrCodeProviderAPI          = "PROVIDER_API_ERROR"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
	ErrCodeMessageLimit         = "MESSAGE_LIMIT_REACHED"
	ErrCodeTokenLimit           = "TOKEN_LIMIT_REACHED"
	ErrCodeModuleNotInPlan      = "MODULE_NOT_IN_PLAN"
	ErrCodeServiceMisconfigured = "SERVICE_MISCONFIGURED"
	ErrCodeRequestCancelled     = "REQUEST_CANCELLED"
)

// StatusClientClosedRequest is the de facto status for a caller that went away
const StatusClientClosedRequest = 499

var statusByCode = map[string]int{
	ErrCodeInternal:             http.StatusInternalServerError,
	ErrCodeBadRequest:           http.StatusBadRequest,
	ErrCodeUnauthorized:         http.StatusUnauthorized,
	ErrCodeForbidden:            http.StatusForbidden,
	ErrCodeNotFound:             http.StatusNotFound,
	ErrCodeConflict:             http.StatusConflict,
	ErrCodeValidation:           http.StatusBadRequest,
	ErrCodeDatabase:             http.StatusInternalServerError,
	ErrCodeProviderAPI:          http.StatusBadGateway,
	ErrCodeRateLimited:          http.StatusTooManyRequests,
	ErrCodeServiceUnavailable:   http.StatusServiceUnavailable,
	ErrCodeMessageLimit:         http.StatusTooManyRequests,
	ErrCodeTokenLimit:           http.StatusTooManyRequests,
	ErrCodeModuleNotInPlan:      http.StatusForbidden,
	ErrCodeServiceMisconfigured: http.StatusInternalServerError,
	ErrCodeRequestCancelled:     StatusClientClosedRequest,
}

// StatusFor returns the HTTP status for code, 500 for unknown codes
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// New creates an AppError whose status follows from code
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: StatusFor(code)}
}

// Wrap is New with an internal cause that never reaches the client
func Wrap(err error, code, message string) *AppError {
	e := New(code, message)
	e.Internal = err
	return e
}

func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message)
}

func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message)
}

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

// NotFound names the missing resource, e.g. NotFound("User")
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, resource+" not found")
}

func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message)
}

// ValidationError carries per-field problems in details
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message).WithDetails(details)
}

func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message)
}

func ProviderAPIError(provider string, err error) *AppError {
	return Wrap(err, ErrCodeProviderAPI, fmt.Sprintf("Failed to communicate with %s API", provider))
}

func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message)
}

func ServiceUnavailable(message string) *AppError {
	return New(ErrCodeServiceUnavailable, message)
}

// ServiceUnavailableErr wraps a transient failure the client may retry
func ServiceUnavailableErr(message string, err error) *AppError {
	return Wrap(err, ErrCodeServiceUnavailable, message)
}

// Cancelled reports a request abandoned by the caller
func Cancelled(err error) *AppError {
	return Wrap(err, ErrCodeRequestCancelled, "Request cancelled")
}

// MessageLimitReached reports an exhausted monthly message quota
func MessageLimitReached(message string) *AppError {
	return New(ErrCodeMessageLimit, message)
}

// TokenLimitReached reports an exhausted monthly token quota
func TokenLimitReached(message string) *AppError {
	return New(ErrCodeTokenLimit, message)
}

// ModuleNotInPlan reports a module the user's plan does not include
func ModuleNotInPlan(message string) *AppError {
	return New(ErrCodeModuleNotInPlan, message)
}

// ServiceMisconfigured reports an operator-facing configuration defect
func ServiceMisconfigured(err error) *AppError {
	return Wrap(err, ErrCodeServiceMisconfigured, "Service is misconfigured")
}
