// Package errors provides the application error taxonomy and HTTP error writing.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	// Client errors (4xx).
	CodeValidation           = "VALIDATION_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeRateLimited          = "RATE_LIMITED"
	CodeConversationArchived = "CONVERSATION_ARCHIVED"

	// Server errors (5xx).
	CodeInternal         = "INTERNAL_ERROR"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
	CodeTimeout          = "TIMEOUT"
	CodeIndexUnavailable = "INDEX_UNAVAILABLE"
	CodeGeneration       = "GENERATION_ERROR"

	// Degradable errors: absorbed by the fallback chain, never shown to clients
	// as failures on their own.
	CodeClassificationAmbiguous = "CLASSIFICATION_AMBIGUOUS"
	CodeSQLGeneration           = "SQL_GENERATION_ERROR"
	CodeSQLExecution            = "SQL_EXECUTION_ERROR"
	CodeRetrievalEmpty          = "RETRIEVAL_EMPTY"
)

// AppError represents an application error with code and details.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConversationArchived:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable, CodeIndexUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Convenience constructors.

// ValidationError creates a validation error. Fatal: the request never enters
// the pipeline.
func ValidationError(message string) *AppError {
	return New(CodeValidation, message)
}

// NotFoundError creates a not found error.
func NotFoundError(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// InvalidRequestError creates an invalid request error.
func InvalidRequestError(message string) *AppError {
	return New(CodeInvalidRequest, message)
}

// InternalError creates an internal error.
func InternalError(message string, err error) *AppError {
	return Wrap(CodeInternal, message, err)
}

// IndexUnavailableError signals that the vector index cannot be reached or the
// collection is missing. Fatal: retrieval has no degraded mode without an index.
func IndexUnavailableError(message string, err error) *AppError {
	return Wrap(CodeIndexUnavailable, message, err)
}

// ClassificationAmbiguousError marks a tied routing decision. Non-fatal: the
// caller logs it and proceeds with the default route.
func ClassificationAmbiguousError(query string) *AppError {
	return New(CodeClassificationAmbiguous, "routing signals tied, using default route").
		WithDetail("query", query)
}

// SQLGenerationError reports that no valid SQL came back from the generator.
// Non-fatal: the engine falls back to vector retrieval.
func SQLGenerationError(message string, err error) *AppError {
	return Wrap(CodeSQLGeneration, message, err)
}

// SQLExecutionError reports a failed execution after the repair retry.
// Non-fatal: the result carries the error, the engine falls back.
func SQLExecutionError(message string, err error) *AppError {
	return Wrap(CodeSQLExecution, message, err)
}

// RetrievalEmptyError reports zero usable chunks. Non-fatal: the composer
// produces the explicit no-information answer.
func RetrievalEmptyError(query string) *AppError {
	return New(CodeRetrievalEmpty, "no relevant chunks retrieved").
		WithDetail("query", query)
}

// GenerationError reports a hard text-generation failure after the retry
// budget. Fatal: there is no answer to return.
func GenerationError(message string, err error) *AppError {
	return Wrap(CodeGeneration, message, err)
}

// ConversationArchivedError rejects writes to an archived conversation.
// Fatal for the request; archiving is terminal.
func ConversationArchivedError(conversationID string) *AppError {
	return New(CodeConversationArchived, "conversation is archived").
		WithDetail("conversation_id", conversationID)
}

// RateLimitedError creates a rate limited error with retry information.
func RateLimitedError(operation string, retryAfterSeconds int) *AppError {
	err := New(CodeRateLimited, "rate limit exceeded")
	if operation != "" {
		err = err.WithDetail("operation", operation)
	}
	if retryAfterSeconds > 0 {
		err = err.WithDetail("retry_after", fmt.Sprintf("%d", retryAfterSeconds))
	}
	return err
}

// TimeoutError creates a timeout error for a specific operation.
func TimeoutError(operation string) *AppError {
	message := "operation timed out"
	if operation != "" {
		message = fmt.Sprintf("%s timed out", operation)
	}
	return New(CodeTimeout, message)
}

// ServiceUnavailableError creates a service unavailable error.
func ServiceUnavailableError(service string) *AppError {
	message := "service unavailable"
	if service != "" {
		message = fmt.Sprintf("%s is unavailable", service)
	}
	return New(CodeUnavailable, message)
}

// Code extracts the AppError code from err, or empty when err is not an AppError.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsNotFound checks if error is a not found error.
func IsNotFound(err error) bool {
	return Code(err) == CodeNotFound
}

// IsValidation checks if error is a validation error.
func IsValidation(err error) bool {
	return Code(err) == CodeValidation
}

// IsRateLimited checks if error is a rate limit exhaustion.
func IsRateLimited(err error) bool {
	return Code(err) == CodeRateLimited
}

// IsTimeout checks if error is a typed timeout.
func IsTimeout(err error) bool {
	return Code(err) == CodeTimeout
}

// IsConversationArchived checks if error rejects an archived conversation.
func IsConversationArchived(err error) bool {
	return Code(err) == CodeConversationArchived
}

// IsFatal reports whether err belongs to the fatal set: validation, index
// unavailable, hard generation failure, archived conversation, or rate-limit
// exhaustion that reached the caller. Everything else is absorbed by the
// fallback chain into a structured answer.
func IsFatal(err error) bool {
	switch Code(err) {
	case CodeValidation, CodeInvalidRequest, CodeIndexUnavailable,
		CodeGeneration, CodeConversationArchived, CodeRateLimited:
		return true
	}
	return false
}

// ErrorResponse is the standard JSON error response structure.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON error response to the ResponseWriter.
// This is the low-level function used by WriteError.
func WriteJSON(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignore encoding errors - headers already sent
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteError writes an error response with proper sanitization.
// If err is an *AppError, it uses the code and status from the error.
// For other errors, it sanitizes the message to prevent leaking internal details.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, appErr.HTTPStatus(), ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}

	// For non-AppError errors, sanitize the message
	// Don't leak internal error details to clients
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal server error",
		Code:    CodeInternal,
		Message: "An unexpected error occurred",
	})
}

// WriteErrorWithStatus writes an error with a specific HTTP status code.
// The error message is sanitized based on the status code:
// - 4xx errors: message is shown to client
// - 5xx errors: message is sanitized (internal details hidden)
func WriteErrorWithStatus(w http.ResponseWriter, status int, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, status, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}

	// For 4xx errors, we can show the message (client error)
	if status >= 400 && status < 500 {
		code := codeForStatus(status)
		WriteJSON(w, status, ErrorResponse{
			Error:   err.Error(),
			Code:    code,
			Message: err.Error(),
		})
		return
	}

	// For 5xx errors, sanitize the message
	WriteJSON(w, status, ErrorResponse{
		Error:   "internal server error",
		Code:    CodeInternal,
		Message: "An unexpected error occurred",
	})
}

// codeForStatus returns an error code for common HTTP status codes.
func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeInvalidRequest
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConversationArchived
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusServiceUnavailable:
		return CodeUnavailable
	case http.StatusGatewayTimeout:
		return CodeTimeout
	default:
		return CodeInternal
	}
}
