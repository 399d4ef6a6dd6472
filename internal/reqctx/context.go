// Package reqctx provides type-safe context value management for the
// application. It uses private key types to prevent context key collisions
// and provides safe getter/setter functions.
package reqctx

import (
	"context"
)

type contextKey string

const (
	studentIDKey contextKey = "reqctx.studentID"
	requestIDKey contextKey = "reqctx.requestID"
)

// WithStudentID adds a student ID to the context.
// The student ID comes from the authenticated identity and is used for
// rate limiting and identity-scoped logging.
func WithStudentID(ctx context.Context, studentID string) context.Context {
	return context.WithValue(ctx, studentIDKey, studentID)
}

// GetStudentID retrieves the student ID from the context.
// Returns the student ID if found, empty string otherwise.
func GetStudentID(ctx context.Context) string {
	if v := ctx.Value(studentIDKey); v != nil {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context.
// Request IDs are generated per chat turn for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID if found, empty string otherwise.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}
	return ""
}
