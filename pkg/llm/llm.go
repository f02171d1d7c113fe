// Package llm defines the contract shared by the language-model gateways.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Request is one system+user prompt pair sent to a completion endpoint.
type Request struct {
	System          string
	User            string
	Temperature     float64
	MaxOutputTokens int
}

// Gateway issues a single completion request and returns the text of the
// first candidate. Implementations make exactly one attempt per call.
type Gateway interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrUnreachable wraps failures where no HTTP response was received.
var ErrUnreachable = errors.New("llm endpoint unreachable")

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Body string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm endpoint returned %d: %s", e.Code, e.Body)
}

// StatusCode returns the HTTP status carried by err, or 0 if there is none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, req Request) (string, error)

// Complete implements Gateway.
func (f GatewayFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
