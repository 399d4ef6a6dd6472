// Package errors provides error wrapping utilities for consistent error handling.
package errors

import (
	"fmt"
)

// ToolError carries internal failure context from a tool together with a
// message that is safe to present to the user. The orchestrator logs the
// internal detail and emits only UserMessage.
type ToolError struct {
	Tool        string // Tool name (e.g., "student", "graduation")
	Operation   string // Operation being performed (e.g., "lookup", "rank")
	Cause       error  // Underlying error
	UserMessage string // User-facing message
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %v", e.Tool, e.Operation, e.UserMessage, e.Cause)
}

func (e *ToolError) Unwrap() error {
	return e.Cause
}

// Wrapper provides context-aware error wrapping for one tool.
type Wrapper struct {
	tool string
}

// NewWrapper creates an error wrapper bound to a tool name.
func NewWrapper(tool string) *Wrapper {
	return &Wrapper{tool: tool}
}

// Wrap wraps an error with operation context and a user-facing message.
// Returns nil if err is nil.
func (w *Wrapper) Wrap(err error, operation, userMessage string) error {
	if err == nil {
		return nil
	}
	return &ToolError{
		Tool:        w.tool,
		Operation:   operation,
		Cause:       err,
		UserMessage: userMessage,
	}
}

// Wrapf wraps an error with a formatted user-facing message.
func (w *Wrapper) Wrapf(err error, operation, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ToolError{
		Tool:        w.tool,
		Operation:   operation,
		Cause:       err,
		UserMessage: fmt.Sprintf(format, args...),
	}
}
