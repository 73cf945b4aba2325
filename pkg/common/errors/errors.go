package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the forkflow library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrPipelineFrozen indicates a stage was added after the pipeline started running
	ErrPipelineFrozen = errors.New("pipeline is frozen")

	// ErrNotIterable indicates that Flatten received an element it cannot iterate
	ErrNotIterable = errors.New("element is not iterable")

	// ErrStagePanic indicates that a user callback panicked inside a stage
	ErrStagePanic = errors.New("stage panicked")
)

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// ValidationError describes a configuration value that was rejected.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// StageError reports a failure raised by the callback of a named stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NotIterableError is produced by Flatten for an element it cannot expand.
// Only the dynamic type is kept; the value itself is never inspected.
type NotIterableError struct {
	Type string
}

// NewNotIterableError records the dynamic type of v.
func NewNotIterableError(v interface{}) *NotIterableError {
	return &NotIterableError{Type: fmt.Sprintf("%T", v)}
}

func (e *NotIterableError) Error() string {
	return fmt.Sprintf("flatten: %s: %v", e.Type, ErrNotIterable)
}

func (e *NotIterableError) Unwrap() error {
	return ErrNotIterable
}

// WorkerError wraps an error that occurred inside a pool worker.
type WorkerError struct {
	WorkerID int
	Err      error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker %d: %v", e.WorkerID, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}
