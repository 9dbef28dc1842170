// Package sjerr defines the structured error type used across the join
// module. Errors carry a category that fixes how a run terminates: a
// validation error aborts before any work starts, a worker failure aborts a
// dispatched run, and an IO error aborts during spooling or finalization.
package sjerr

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Category classifies errors by where in a run they arise.
type Category int

const (
	// CategoryValidation covers bad attributes, types, thresholds,
	// operators and key constraints. Raised before any partitioning or
	// dispatch; no output and no temp files exist when one surfaces.
	CategoryValidation Category = iota

	// CategoryWorker covers failures inside a dispatched unit of work.
	// A worker failure aborts the entire run; nothing is salvaged or
	// retried.
	CategoryWorker

	// CategoryIO covers temp file creation, append, read-back and rename
	// failures. Deletion failures during cleanup are not errors of this
	// category; they are logged and swallowed.
	CategoryIO
)

// String returns a short name for the category.
func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "VALIDATION"
	case CategoryWorker:
		return "WORKER"
	case CategoryIO:
		return "IO"
	default:
		return "UNKNOWN"
	}
}

// JoinError is a structured error with category, code and context.
type JoinError struct {
	// Code is a unique identifier for this error type
	// (e.g. "ATTR_NOT_FOUND", "KEY_NOT_UNIQUE", "SPOOL_APPEND_FAILED").
	Code string

	// Category classifies the error.
	Category Category

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific instance,
	// e.g. the offending attribute or file name.
	Detail string

	// Operation identifies what was being performed, e.g. "Partition",
	// "Dispatch", "Finalize".
	Operation string

	// Component identifies where the error originated, e.g. "Validator",
	// "Kernel", "Spooler".
	Component string

	// Cause is the underlying error, if any.
	Cause error

	// Stack holds the call stack captured at creation.
	Stack []uintptr
}

// New creates a new JoinError with the given category, code and message.
func New(category Category, code, message string) *JoinError {
	return &JoinError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
}

// WithDetail attaches instance detail and returns the error.
func (e *JoinError) WithDetail(format string, args ...any) *JoinError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithContext attaches operation and component and returns the error.
func (e *JoinError) WithContext(operation, component string) *JoinError {
	e.Operation = operation
	e.Component = component
	return e
}

// Wrap wraps an existing error with join-specific context. If err is already
// a JoinError its operation and component are filled in where empty;
// otherwise a new error of the given category is created around it.
func Wrap(err error, category Category, code, operation, component string) *JoinError {
	if err == nil {
		return nil
	}

	var je *JoinError
	if errors.As(err, &je) {
		if je.Operation == "" {
			je.Operation = operation
		}
		if je.Component == "" {
			je.Component = component
		}
		return je
	}

	return &JoinError{
		Code:      code,
		Category:  category,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// captureStack captures the current call stack, skipping the frames of this
// package's constructors.
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the standard error interface.
//
// The format follows the pattern:
// [CODE] Message: Detail (operation: Operation, component: Component) caused by: cause
func (e *JoinError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *JoinError) Unwrap() error {
	return e.Cause
}

// FormatStack returns a human-readable stack trace for debugging.
func (e *JoinError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n", f.Function, f.File, f.Line))
		if !more {
			break
		}
	}

	return b.String()
}

// isCategory reports whether err is a JoinError of the given category.
func isCategory(err error, c Category) bool {
	var je *JoinError
	return errors.As(err, &je) && je.Category == c
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return isCategory(err, CategoryValidation)
}

// IsWorker reports whether err is a worker failure.
func IsWorker(err error) bool {
	return isCategory(err, CategoryWorker)
}

// IsIO reports whether err is an IO error.
func IsIO(err error) bool {
	return isCategory(err, CategoryIO)
}
