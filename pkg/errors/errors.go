package errors

import (
	"errors"
	"fmt"
)

// Standard error types
var (
	ErrAuthentication = errors.New("authentication error")
	ErrConfiguration  = errors.New("configuration error")
	ErrHTTPRequest    = errors.New("HTTP request error")
	ErrHTTPResponse   = errors.New("HTTP response error")
	ErrPagination     = errors.New("pagination error")
	ErrExtraction     = errors.New("data extraction error")
	ErrValidation     = errors.New("validation error")
	ErrExport         = errors.New("export error")

	// ErrRetriesExhausted marks a fetch that failed on every allowed attempt.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrNotStarted marks a batch identifier whose collection never ran.
	ErrNotStarted = errors.New("collection not started")
	// ErrStageFailed marks a pipeline run aborted by a load-bearing stage.
	ErrStageFailed = errors.New("pipeline stage failed")
)

// WrapError wraps an error with a standard error type
func WrapError(err error, errType error, message string) error {
	wrapped := fmt.Errorf("%s: %w", message, err)
	return fmt.Errorf("%w: %v", errType, wrapped)
}

// Is provides a convenience wrapper around errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As provides a convenience wrapper around errors.As
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap provides a convenience wrapper around errors.Unwrap
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// HTTPError is a non-200 response that did not match a sentinel condition.
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// FetchError is returned once a page fetch has used every attempt.
// It matches both ErrRetriesExhausted and the last attempt's cause.
type FetchError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch data from %s after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRetriesExhausted}
	}
	return []error{ErrRetriesExhausted, e.Err}
}

// StageError names the pipeline stage that aborted a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{ErrStageFailed, e.Err}
}
