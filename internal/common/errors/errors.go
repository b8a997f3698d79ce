// Package errors provides standardized error handling for the intake HTTP surface.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeInvalidRequest              ErrorCode = "INVALID_REQUEST"
	ErrCodeResourceNotFound            ErrorCode = "RESOURCE_NOT_FOUND"

	ErrCodeDatabaseInsertFailed ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeFileSaveFailed       ErrorCode = "FILE_SAVE_FAILED"

	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	ErrCodeInternal    ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Status returns the HTTP status carried by the error, 500 when unset.
func (e *StandardError) Status() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

// ==========================
// 2. Error Constructors
// ==========================

// NewApplicationValidationFailedError reports field errors on a submission.
func NewApplicationValidationFailedError(fieldErrors map[string]string) *StandardError {
	meta := make(map[string]interface{}, len(fieldErrors))
	for k, v := range fieldErrors {
		meta[k] = v
	}
	return &StandardError{
		Code:       ErrCodeApplicationValidationFailed,
		Message:    "Application validation failed",
		Details:    fmt.Sprintf("%d field errors", len(fieldErrors)),
		HTTPStatus: http.StatusBadRequest,
		Metadata:   meta,
		Timestamp:  time.Now().UTC(),
	}
}

func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:       ErrCodeInvalidRequest,
		Message:    "Invalid request",
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
		Timestamp:  time.Now().UTC(),
	}
}

func NewResourceNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:       ErrCodeResourceNotFound,
		Message:    "Resource not found",
		Details:    fmt.Sprintf("%s %s", resource, id),
		HTTPStatus: http.StatusNotFound,
		Timestamp:  time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError is returned when the store accepted the
// request but produced no row.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:       ErrCodeDatabaseInsertFailed,
		Message:    "Insert failed",
		Details:    errDetails(err),
		HTTPStatus: http.StatusInternalServerError,
		Timestamp:  time.Now().UTC(),
	}
}

func NewQueryExecutionFailedError(err error) *StandardError {
	return &StandardError{
		Code:       ErrCodeQueryExecutionFailed,
		Message:    "Query execution failed",
		Details:    errDetails(err),
		HTTPStatus: http.StatusBadGateway,
		Timestamp:  time.Now().UTC(),
	}
}

func NewFileSaveFailedError(filename string, err error) *StandardError {
	return &StandardError{
		Code:       ErrCodeFileSaveFailed,
		Message:    "File could not be saved",
		Details:    fmt.Sprintf("%s: %s", filename, errDetails(err)),
		HTTPStatus: http.StatusInternalServerError,
		Timestamp:  time.Now().UTC(),
	}
}

func NewRateLimitedError(retryAfter time.Duration) *StandardError {
	return &StandardError{
		Code:       ErrCodeRateLimited,
		Message:    "Too many requests",
		Details:    fmt.Sprintf("retry after %s", retryAfter.Round(time.Second)),
		HTTPStatus: http.StatusTooManyRequests,
		Timestamp:  time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:       ErrCodeInternal,
		Message:    "Unexpected error",
		Details:    errDetails(err),
		HTTPStatus: http.StatusInternalServerError,
		Timestamp:  time.Now().UTC(),
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
