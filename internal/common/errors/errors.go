// Package errors provides the standardized error taxonomy for the VCA service.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfiguration     ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeUpstreamAuth      ErrorCode = "UPSTREAM_AUTH_ERROR"
	ErrCodeUpstreamAPI       ErrorCode = "UPSTREAM_API_ERROR"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeSynthesisDegraded ErrorCode = "SYNTHESIS_DEGRADED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

// Error returns the message followed by the details, if any. The HTTP layer
// reports this text verbatim.
func (e *StandardError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Details)
}

// UpstreamAPIError is returned for any non-2xx response from the shop API.
// It carries enough detail to be logged verbatim.
type UpstreamAPIError struct {
	Status int    `json:"status"`
	Path   string `json:"path"`
	Body   string `json:"body"`
}

func (e *UpstreamAPIError) Error() string {
	return fmt.Sprintf("Tekmetric API error %d on %s: %s", e.Status, e.Path, e.Body)
}

// Retryable reports whether the upstream status is likely transient.
func (e *UpstreamAPIError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}

// ==========================
// 2. Error Constructors
// ==========================

// NewConfigurationError creates a non-retryable error for a missing secret or URL.
// It fails the request, never the process.
func NewConfigurationError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamAuthError creates an error for a failed token exchange. The raw
// token endpoint response is kept in Details for diagnosis.
func NewUpstreamAuthError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamAuth,
		Message:   "Tekmetric token response missing access_token",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamAPIError creates an UpstreamAPIError.
func NewUpstreamAPIError(status int, path, body string) *UpstreamAPIError {
	return &UpstreamAPIError{Status: status, Path: path, Body: body}
}

// NewValidationError creates a non-retryable error for domain data missing a
// required field.
func NewValidationError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSynthesisDegradedError describes a swallowed synthesis failure. It is only
// ever logged; callers receive the fallback document instead.
func NewSynthesisDegradedError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSynthesisDegraded,
		Message:   "Intelligence synthesis degraded to fallback",
		Details:   cause.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// CodeOf returns the error code carried by err, INTERNAL_ERROR otherwise.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	var apiErr *UpstreamAPIError
	if stderrors.As(err, &apiErr) {
		return ErrCodeUpstreamAPI
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryable reports whether err is worth retrying at a higher layer.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	var apiErr *UpstreamAPIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIG"
	case strings.HasPrefix(codeStr, "UPSTREAM"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "SYNTHESIS"):
		return "AI"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
