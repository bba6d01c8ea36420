// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (configuration,
// calibration, benchmark failures, history files) and for carrying the
// underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// All error types that carry a cause implement Unwrap() to support errors.Is()
// and errors.As().
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates that at least one benchmark unit failed.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorCanceled = 130 // Indicates the run was interrupted (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ValidationError represents an out-of-range or contradictory option value.
// It is raised before any measurement begins.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message describes why validation failed.
	Message string
	// Value is the invalid value (optional, may be nil).
	Value any
}

// Error returns the error message for a ValidationError.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// CalibrationError reports that calibration exhausted safe batch-size growth
// without a batch reaching the minimum sample duration. It is fatal for the
// benchmark unit and is never retried.
type CalibrationError struct {
	// Benchmark is the name of the unit being calibrated, when known.
	Benchmark string
	// Runs is the last batch size that was tried.
	Runs int
	// Reason replaces the default explanation when set.
	Reason string
}

// Error returns the error message for a CalibrationError.
func (e CalibrationError) Error() string {
	name := e.Benchmark
	if name == "" {
		name = "benchmark"
	} else {
		name = fmt.Sprintf("benchmark %q", name)
	}
	if e.Reason != "" {
		return fmt.Sprintf("unmeasurable: %s %s (%d runs per sample)", name, e.Reason, e.Runs)
	}
	return fmt.Sprintf("unmeasurable: %s is too fast, or minSampleDuration is too large (gave up at %d runs per sample)", name, e.Runs)
}

// BenchmarkError encapsulates a failure raised by a user-supplied setup or
// work callable while preserving the original cause. No partial result is
// produced for a unit that fails this way.
type BenchmarkError struct {
	// Phase is "setup" or "run".
	Phase string
	// Cause is the underlying error, or an error describing the panic value.
	Cause error
	// Stack is the goroutine stack captured at the point of failure.
	Stack []byte
}

// Error returns a message naming the failing phase and the cause.
func (e BenchmarkError) Error() string {
	return fmt.Sprintf("benchmark %s failed: %v", e.Phase, e.Cause)
}

// Unwrap returns the original wrapped error, allowing for error chain
// inspection (e.g., using errors.Is or errors.As).
func (e BenchmarkError) Unwrap() error { return e.Cause }

// HistorySchemaError reports a persisted history log whose version tag does
// not match the current schema. The log is not migrated.
type HistorySchemaError struct {
	// Path is the history file that failed to load.
	Path string
	// Found is the version tag read from the file.
	Found string
	// Want is the version this build understands.
	Want string
}

// Error returns the error message for a HistorySchemaError.
func (e HistorySchemaError) Error() string {
	return fmt.Sprintf("unexpected version %q in history file %s (want %q)", e.Found, e.Path, e.Want)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// It returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
