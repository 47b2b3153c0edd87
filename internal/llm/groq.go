package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
)

const (
	groqAPIURL     = "https://api.groq.com/openai/v1"
	groqModel      = "llama-3.3-70b-versatile"
	defaultTimeout = 90 * time.Second
)

// ChatClient talks to an OpenAI-compatible chat completions endpoint. It
// defaults to Groq; any compatible BaseURL works.
type ChatClient struct {
	*OpenAIClient
}

// NewGroqClient creates a chat completions client. The timeout bounds the
// whole call.
func NewGroqClient(opts Options) *ChatClient {
	if opts.BaseURL == "" {
		opts.BaseURL = groqAPIURL
	}
	if opts.Model == "" {
		opts.Model = groqModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &ChatClient{OpenAIClient: newChatCompletions("groq", opts)}
}

// GenerateStructured requests a JSON object. The schema is appended to the
// prompt because json_object mode does not take one.
func (c *ChatClient) GenerateStructured(ctx context.Context, prompt string, schema Schema) (ContentResponse, error) {
	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to marshal schema: %w", err)
	}
	prompt = fmt.Sprintf("%s\n\nRespond only with a JSON object matching this JSON Schema (%s):\n%s", prompt, schema.Name, def)

	params := c.params(prompt)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
	}
	return c.complete(ctx, params)
}
