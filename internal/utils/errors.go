package utils

import (
	"errors"
	"fmt"
)

// ValidationError represents an error occurring during input validation.
// Validation failures are the caller's responsibility and are never retried.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with a specific message.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AcquisitionError represents an upstream fetch failure after the retry
// budget is exhausted. Blocked marks the sub-case where the upstream answered
// with anti-automation defenses (HTML disguised as a success) rather than a
// normal transport error.
type AcquisitionError struct {
	Message string
	Blocked bool
	Cause   error
}

func (e *AcquisitionError) Error() string {
	if e.Blocked {
		return fmt.Sprintf("upstream blocked request: %s", e.Message)
	}
	return fmt.Sprintf("acquisition failed: %s", e.Message)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Cause
}

// NewAcquisitionError creates a generic upstream failure.
func NewAcquisitionError(message string, cause error) error {
	return &AcquisitionError{Message: message, Cause: cause}
}

// NewBlockedError creates the blocked sub-case of AcquisitionError.
func NewBlockedError(message string, cause error) error {
	return &AcquisitionError{Message: message, Blocked: true, Cause: cause}
}

// IsBlocked reports whether err is an AcquisitionError classified as blocked.
func IsBlocked(err error) bool {
	var ae *AcquisitionError
	return errors.As(err, &ae) && ae.Blocked
}

// IsAcquisitionError reports whether err is any upstream acquisition failure.
func IsAcquisitionError(err error) bool {
	var ae *AcquisitionError
	return errors.As(err, &ae)
}

// ErrEmptySeries is returned by the scoring engine when the time series has
// no points. Not retried; surfaced to callers as "no data available".
var ErrEmptySeries = errors.New("time series data is empty")

// IsEmptySeries reports whether err is the empty-series scoring precondition.
func IsEmptySeries(err error) bool {
	return errors.Is(err, ErrEmptySeries)
}

// CacheUnavailableError indicates the cache store is unreachable. The
// pipeline degrades to direct-fetch mode; cache writes become best-effort.
type CacheUnavailableError struct {
	Cause error
}

func (e *CacheUnavailableError) Error() string {
	return fmt.Sprintf("cache store unavailable: %v", e.Cause)
}

func (e *CacheUnavailableError) Unwrap() error {
	return e.Cause
}

// NewCacheUnavailableError wraps a store connectivity failure.
func NewCacheUnavailableError(cause error) error {
	return &CacheUnavailableError{Cause: cause}
}

// IsCacheUnavailable reports whether err means the store is unreachable.
func IsCacheUnavailable(err error) bool {
	var ce *CacheUnavailableError
	return errors.As(err, &ce)
}
