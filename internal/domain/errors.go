package domain

import (
	"fmt"
	"strings"
)

// Error types for consistent error handling across the advisor.

// ErrExternalService indicates a failure in an external collaborator call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrValidationRejected indicates the uploaded documents failed the
// name/type checks. Issues carries one entry per problem found.
type ErrValidationRejected struct {
	Issues []string
}

func (e *ErrValidationRejected) Error() string {
	return "document validation failed:\n- " + strings.Join(e.Issues, "\n- ")
}

// ErrInvalidInput indicates a bad request from the presentation layer.
type ErrInvalidInput struct {
	Field   string
	Message string
}

func (e *ErrInvalidInput) Error() string {
	return fmt.Sprintf("invalid input '%s': %s", e.Field, e.Message)
}

// ErrRunActive indicates a mutation that is not allowed while the
// pipeline is running (e.g. changing the customer kind mid-run).
type ErrRunActive struct {
	Operation string
}

func (e *ErrRunActive) Error() string {
	return fmt.Sprintf("operation not allowed while analysis is running: %s", e.Operation)
}

// ============================================================
// Display-only error classification
// ============================================================

// ErrorCategory is the friendly bucket a failed run's error is shown
// under. Classification never changes control flow.
type ErrorCategory string

const (
	CategoryCredential ErrorCategory = "credential"
	CategoryMalformed  ErrorCategory = "malformed_request"
	CategoryUpstream   ErrorCategory = "upstream_fault"
	CategoryGeneric    ErrorCategory = "generic"
)

// ClassifyError maps a raw pipeline error to a user-facing category and
// message by inspecting the error text for known markers. Unrecognized
// errors get the generic analysis-failed message.
func ClassifyError(err error) (ErrorCategory, string) {
	if err == nil {
		return CategoryGeneric, ""
	}
	text := strings.ToLower(err.Error())

	switch {
	case strings.Contains(text, "401"),
		strings.Contains(text, "unauthorized"),
		strings.Contains(text, "api key"),
		strings.Contains(text, "credential"):
		return CategoryCredential, "The document analysis service rejected our credentials. Please check the configured API key."
	case strings.Contains(text, "400"),
		strings.Contains(text, "unprocessable"),
		strings.Contains(text, "could not process"):
		return CategoryMalformed, "The documents could not be processed. Please check that every upload is a readable document."
	case strings.Contains(text, "status 5"),
		strings.Contains(text, "circuit breaker"),
		strings.Contains(text, "timeout"),
		strings.Contains(text, "deadline exceeded"),
		strings.Contains(text, "connection refused"):
		return CategoryUpstream, "The document analysis service is currently unavailable. Please try again in a moment."
	default:
		return CategoryGeneric, "Analysis failed. Please try again."
	}
}
