package ai

import (
	"context"
	"errors"
	"fmt"
)

const (
	roleSystem = "system"
	roleUser   = "user"

	genericProviderMessage = "Failed to generate content"
)

var ErrMissingCredential = errors.New("provider credential is required")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client sends one chat completion request authorized by the given credential.
// An empty choices list is a successful empty completion, not an error.
type Client interface {
	Complete(ctx context.Context, credential string, messages []Message) (string, error)
}

// ProviderError is a non-success answer from the completion endpoint.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return "provider error: " + e.Message
}

// TransportError is a network-level failure before a provider answer was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func providerMessage(message string) string {
	if message == "" {
		return genericProviderMessage
	}
	return message
}
