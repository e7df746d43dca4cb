package wani

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is the normalized shape every failed API call resolves to,
// regardless of whether the failure came from the API, the transport,
// or response parsing.
type Error struct {
	// Status is the HTTP status code, 0 for transport failures.
	Status int `json:"-"`
	// Code is the machine-readable error code (e.g. "unauthorized").
	Code string `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details carries additional structured error data.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Transport failure codes.
const (
	CodeNetworkError = "network_error"
	CodeTimeout      = "timeout"
)

// IsUnauthorized returns true for authorization failures (401).
func (e *Error) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Code == "unauthorized"
}

// IsForbidden returns true for permission failures (403).
func (e *Error) IsForbidden() bool {
	return e.Status == http.StatusForbidden || e.Code == "forbidden"
}

// IsNotFound returns true when the resource does not exist (404).
func (e *Error) IsNotFound() bool {
	return e.Status == http.StatusNotFound || e.Code == "not_found"
}

// IsValidation returns true for rejected input (400/422).
func (e *Error) IsValidation() bool {
	return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity || e.Code == "validation_error"
}

// IsNetwork returns true for transport-level failures where no
// response was received.
func (e *Error) IsNetwork() bool {
	return e.Code == CodeNetworkError || e.Code == CodeTimeout
}

// IsAPIError checks whether err is a normalized API error.
func IsAPIError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// parseError normalizes an error response body. The API's envelope is
// {success:false, error, message, details}; older endpoints return
// {code, message, details}. Anything else falls back to the raw body.
func parseError(statusCode int, body []byte) *Error {
	var envelope struct {
		ErrorCode string                 `json:"error"`
		Code      string                 `json:"code"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details,omitempty"`
	}

	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		code := envelope.Code
		if code == "" {
			code = envelope.ErrorCode
		}
		if code == "" {
			code = defaultCode(statusCode)
		}
		return &Error{
			Status:  statusCode,
			Code:    code,
			Message: envelope.Message,
			Details: envelope.Details,
		}
	}

	message := string(body)
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &Error{
		Status:  statusCode,
		Code:    defaultCode(statusCode),
		Message: message,
	}
}

// defaultCode maps a status to a code when the body carries none.
func defaultCode(statusCode int) string {
	switch statusCode {
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "validation_error"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "UNKNOWN_ERROR"
	}
}
