// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrDatabaseCorrupted marks stored data that can no longer be decoded.
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// ErrAnalysisFailed wraps any failure of the analysis pipeline.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrInvalidSettings rejects a settings update that fails validation.
	ErrInvalidSettings = errors.New("invalid settings")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry. Context
// cancellation is final and an explicit RetryableError marking wins; any
// other error is assumed transient.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return true
}
