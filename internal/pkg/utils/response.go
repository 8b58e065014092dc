package utils

import (
	"encoding/json"
	"net/http"

	"github.com/pratik-mahalle/tiergate/internal/pkg/errors"
)

// Envelope is the body of every API response. Exactly one of Data and Error
// is meaningful, selected by Success.
type Envelope struct {
	Success bool         `json:"success"`
	Data    interface{}  `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail is the error half of the envelope. Plan denials put the
// remaining quota in Details.
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// retryAfterSeconds is advertised on retryable failures that set no header
const retryAfterSeconds = "1"

// WriteJSON writes v as the response body. Usage figures change on every
// request, so responses are never cached.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) error {
	return WriteJSON(w, status, Envelope{Success: true, Data: data})
}

func WriteSuccessWithMessage(w http.ResponseWriter, status int, message string, data interface{}) error {
	return WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// NewErrorEnvelope builds the failure envelope for err
func NewErrorEnvelope(err *errors.AppError) Envelope {
	return Envelope{
		Error: &ErrorDetail{
			Code:    err.Code,
			Message: err.Message,
			Details: err.Details,
		},
	}
}

// WriteError writes err with its mapped status. The internal cause is never
// serialized.
func WriteError(w http.ResponseWriter, err *errors.AppError) error {
	if err.Retryable() && w.Header().Get("Retry-After") == "" {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	return WriteJSON(w, err.StatusCode, NewErrorEnvelope(err))
}
