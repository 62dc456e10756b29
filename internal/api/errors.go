package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Error codes returned in API error bodies.
const (
	CodeValidation  = "VALIDATION"
	CodeNotFound    = "NOT_FOUND"
	CodeRateLimited = "RATE_LIMITED"
	CodeInternal    = "INTERNAL"
)

// APIError is a custom error type that implements huma.StatusError.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string   `json:"code" doc:"Machine-readable error code"`
	Message string   `json:"message" doc:"Human-readable error message"`
	Details []string `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to produce APIError bodies.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var details []string
		for _, err := range errs {
			if err != nil {
				details = append(details, err.Error())
			}
		}
		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
			Details: details,
		}
	}
}

// statusToCode maps HTTP status codes to error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeValidation
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusTooManyRequests:
		return CodeRateLimited
	default:
		return CodeInternal
	}
}
