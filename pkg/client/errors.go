package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes the API returns for quota and plan denials
const (
	CodeMessageLimit    = "MESSAGE_LIMIT_REACHED"
	CodeTokenLimit      = "TOKEN_LIMIT_REACHED"
	CodeModuleNotInPlan = "MODULE_NOT_IN_PLAN"
)

// APIError represents an error returned by the API
type APIError struct {
	StatusCode int             `json:"-"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Details    json.RawMessage `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("API error: %s (status: %d)", e.Message, e.StatusCode)
}

// IsNotFound returns true if the error is a 404 not found error
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401 unauthorized error
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsForbidden returns true if the error is a 403 forbidden error
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsValidationError returns true if the error is a 400 validation error
func (e *APIError) IsValidationError() bool {
	return e.StatusCode == http.StatusBadRequest
}

// IsQuotaExceeded reports a monthly message or token limit denial
func (e *APIError) IsQuotaExceeded() bool {
	return e.Code == CodeMessageLimit || e.Code == CodeTokenLimit
}

// IsServerError returns true if the error is a 5xx server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// Denial decodes the plan counters attached to a quota or module denial
func (e *APIError) Denial() (*Denial, bool) {
	if len(e.Details) == 0 {
		return nil, false
	}
	var d Denial
	if err := json.Unmarshal(e.Details, &d); err != nil || d.PlanID == "" {
		return nil, false
	}
	return &d, true
}

// AsAPIError unwraps an *APIError from err
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
