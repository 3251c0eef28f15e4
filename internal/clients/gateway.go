package clients

import (
	"context"
	"errors"
	"fmt"
)

// ChatMessage is one turn of conversation context passed to the backend
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GatewayRequest describes a single chat-style model invocation. When
// Messages is empty the request carries one user turn built from Prompt;
// an image attachment rides along as an inlined base64 reference.
type GatewayRequest struct {
	Prompt         string
	System         string
	Messages       []ChatMessage
	ImageBase64    string
	ImageMediaType string
	Model          string
	MaxTokens      int
	Temperature    float64
}

// GatewayReply is the verbatim model output for one invocation
type GatewayReply struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// ModelGateway sends chat-style requests to a configured LLM backend.
// Implementations do not retry; failures surface immediately as typed
// errors so the caller decides what to do.
type ModelGateway interface {
	Invoke(ctx context.Context, req *GatewayRequest) (*GatewayReply, error)
	ModelName() string
}

// ConfigurationError indicates a required credential is missing. Raised
// before any network call is attempted.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("gateway configuration error: %s", e.Message)
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

// ConnectionError indicates the backend was unreachable (network/DNS/TLS)
type ConnectionError struct {
	Backend string
	Cause   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error to %s backend: %v", e.Backend, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// RateLimitError indicates the backend signalled throttling
type RateLimitError struct {
	Backend    string
	RetryAfter int // seconds to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded on %s backend (retry after %ds)", e.Backend, e.RetryAfter)
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	var rateErr *RateLimitError
	return errors.As(err, &rateErr)
}

// BackendError indicates a non-success status with a backend-provided message
type BackendError struct {
	Backend    string
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend error (status %d): %s", e.Backend, e.StatusCode, e.Message)
}

// IsBackendError checks if an error is a backend error
func IsBackendError(err error) bool {
	var backendErr *BackendError
	return errors.As(err, &backendErr)
}
