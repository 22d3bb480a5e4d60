// Package core provides shared utilities for the carbon footprint MCP tools.
package core

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorCode identifies a class of tool failure in error results.
type ErrorCode string

const (
	// Input validation errors
	ErrInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrInvalidLatitude  ErrorCode = "INVALID_LATITUDE"
	ErrInvalidLongitude ErrorCode = "INVALID_LONGITUDE"
	ErrInvalidActivity  ErrorCode = "INVALID_ACTIVITY"
	ErrUnknownCountry   ErrorCode = "UNKNOWN_COUNTRY"
	ErrEmptyParameter   ErrorCode = "EMPTY_PARAMETER"
	ErrMissingParameter ErrorCode = "MISSING_PARAMETER"

	// External service errors
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrServiceTimeout     ErrorCode = "SERVICE_TIMEOUT"
	ErrRateLimit          ErrorCode = "RATE_LIMIT"
	ErrNetworkError       ErrorCode = "NETWORK_ERROR"

	// Data errors
	ErrNoResults       ErrorCode = "NO_RESULTS"
	ErrAddressNotFound ErrorCode = "ADDRESS_NOT_FOUND"
	ErrParseError      ErrorCode = "PARSE_ERROR"
	ErrInternalError   ErrorCode = "INTERNAL_ERROR"
)

// MCPError is the structured error payload returned in tool error results.
// Guidance tells the caller what to do about it; Suggestions offer
// alternative inputs.
type MCPError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Query       string   `json:"query,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Guidance    string   `json:"guidance,omitempty"`
}

// NewError creates an MCPError with the given code and message.
func NewError(code ErrorCode, message string) *MCPError {
	return &MCPError{Code: string(code), Message: message}
}

// NewValidationError creates an input validation error with standard guidance.
func NewValidationError(code ErrorCode, message string) *MCPError {
	return NewError(code, message).
		WithGuidance("Please correct the parameters and try again.")
}

// Error implements the error interface.
func (e MCPError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithQuery records the input that produced the error.
func (e *MCPError) WithQuery(query string) *MCPError {
	e.Query = query
	return e
}

// WithGuidance sets the caller-facing guidance text.
func (e *MCPError) WithGuidance(guidance string) *MCPError {
	e.Guidance = guidance
	return e
}

// WithSuggestions appends alternative inputs the caller could try.
func (e *MCPError) WithSuggestions(suggestions ...string) *MCPError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// ToMCPResult renders the error as an MCP tool error result.
func (e *MCPError) ToMCPResult() *mcp.CallToolResult {
	payload, err := json.Marshal(e)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ERROR: %s - %s", e.Code, e.Message))
	}
	return mcp.NewToolResultError(string(payload))
}

// serviceErrorClasses maps an upstream HTTP status to an error code and
// caller guidance.
var serviceErrorClasses = map[int]struct {
	code     ErrorCode
	guidance string
}{
	http.StatusTooManyRequests:     {ErrRateLimit, "The service is rate-limited. Please try again in a few moments."},
	http.StatusRequestTimeout:      {ErrServiceTimeout, "The request timed out. Please try again later."},
	http.StatusGatewayTimeout:      {ErrServiceTimeout, "The request timed out. Please try again later."},
	http.StatusBadRequest:          {ErrInvalidInput, "The request was invalid. Check your parameters and try again."},
	http.StatusInternalServerError: {ErrInternalError, "The server encountered an error. This is likely temporary, please try again later."},
	http.StatusServiceUnavailable:  {ErrServiceUnavailable, "The service is temporarily unavailable. Please try again later."},
}

// ServiceError builds an error for an external service failure, classifying
// it by the upstream HTTP status.
func ServiceError(service string, statusCode int, message string) *MCPError {
	class, ok := serviceErrorClasses[statusCode]
	if !ok {
		class.code = ErrServiceUnavailable
		class.guidance = "Please try again later or modify your request parameters."
	}

	return NewError(class.code, fmt.Sprintf("%s service error: %s", service, message)).
		WithGuidance(class.guidance)
}
