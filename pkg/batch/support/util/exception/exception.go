// Package exception provides the error types shared by the demo runner's steps and adapters.
// Errors carry the module they originated from and whether they may be skipped or retried,
// which lets callers decide locally how a failure is absorbed.
package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// BatchError is an error raised while executing a job or one of its steps.
type BatchError struct {
	// Module indicates where the error occurred (e.g., "line_reader", "config", "console_writer").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	isRetryable bool
	isSkippable bool
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// NewBatchError creates a new BatchError.
func NewBatchError(module, message string, originalErr error, isSkippable, isRetryable bool) *BatchError {
	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  captureStack(),
	}
}

// NewBatchErrorf creates a new BatchError using a format string.
// Optional trailing arguments are consumed from the end in the order
// [originalErr error], [isRetryable bool], [isSkippable bool]; the rest feed fmt.Sprintf.
//
//	NewBatchErrorf("line_reader", "read %s", path, true, false, err)
//	-> message "read <path>", skippable, not retryable, wraps err
func NewBatchErrorf(module, format string, a ...interface{}) *BatchError {
	var originalErr error
	isRetryable := false
	isSkippable := false
	args := a

	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}
	if len(args) > 0 {
		if b, ok := args[len(args)-1].(bool); ok {
			isRetryable = b
			args = args[:len(args)-1]
		}
	}
	if len(args) > 0 {
		if b, ok := args[len(args)-1].(bool); ok {
			isSkippable = b
			args = args[:len(args)-1]
		}
	}

	return &BatchError{
		Module:      module,
		Message:     fmt.Sprintf(format, args...),
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  captureStack(),
	}
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Is / errors.As.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *BatchError) IsRetryable() bool {
	return e.isRetryable
}

// IsSkippable returns whether this error is skippable.
func (e *BatchError) IsSkippable() bool {
	return e.isSkippable
}

// ExtractErrorMessage returns the Message of a BatchError, or err.Error() otherwise.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *BatchError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}

// ErrResourceUnavailable marks a failure to acquire an external resource
// (missing file, permission denied, unreadable directory entry).
var ErrResourceUnavailable = errors.New("resource unavailable")

// NewResourceUnavailableError wraps an acquisition failure for the named resource.
// The result is skippable and matches ErrResourceUnavailable with errors.Is.
func NewResourceUnavailableError(module, resource string, cause error) *BatchError {
	wrapped := ErrResourceUnavailable
	if cause != nil {
		wrapped = errors.Join(ErrResourceUnavailable, cause)
	}
	return NewBatchError(module, fmt.Sprintf("cannot acquire resource '%s'", resource), wrapped, true, false)
}

// IsResourceUnavailable reports whether err signals a failed resource acquisition.
func IsResourceUnavailable(err error) bool {
	return errors.Is(err, ErrResourceUnavailable)
}
