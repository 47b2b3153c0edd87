package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"keto-planner/internal/shared"
)

// ErrMissingAPIKey is returned at call time when the selected provider has no credential.
var ErrMissingAPIKey = errors.New("generation service API key is not configured")

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// Schema describes the JSON document a structured request must return.
// Definition is a JSON Schema object.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// TextGenerator generates freeform text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// StructuredGenerator generates a JSON document conforming to a schema.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, prompt string, schema Schema) (ContentResponse, error)
}

// Generator is a provider client that supports both modes.
type Generator interface {
	TextGenerator
	StructuredGenerator
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// Options configures a provider client. Zero values fall back to provider defaults.
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	System      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// APIError is a non-success response from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: status=%d body=%s", e.Provider, e.StatusCode, e.Body)
}
