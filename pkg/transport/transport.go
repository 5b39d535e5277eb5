// Package transport performs the GET requests of the client and classifies
// their failures. Retries, authentication and metrics live here and nowhere
// else.
package transport

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Transport issues a GET with flat query parameters and returns the raw JSON
// body. Non-success statuses fail with *Error.
type Transport interface {
	Get(ctx context.Context, url string, params map[string]string) (json.RawMessage, error)
}

// Func adapts a function to the Transport interface
type Func func(ctx context.Context, url string, params map[string]string) (json.RawMessage, error)

// Get implements Transport
func (f Func) Get(ctx context.Context, url string, params map[string]string) (json.RawMessage, error) {
	return f(ctx, url, params)
}

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// RequestIDKey is the context key for request IDs
	RequestIDKey ContextKey = "request_id"

	// RequestIDHeader carries the request id on every request
	RequestIDHeader = "X-Request-ID"
)

// WithRequestID sets the request id sent with requests made under ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func requestID(ctx context.Context) string {
	if id := GetRequestID(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}
