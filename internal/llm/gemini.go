package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"keto-planner/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-pro"

// GeminiClient is a client for the Google Gemini API. The SDK client is
// created on first use so a missing key surfaces per request.
type GeminiClient struct {
	opts Options

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(opts Options) *GeminiClient {
	if opts.Model == "" {
		opts.Model = defaultGeminiModel
	}
	return &GeminiClient{opts: opts}
}

// GenerateContent sends a prompt to the Gemini model and returns the generated text.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	model, err := c.model(ctx)
	if err != nil {
		return ContentResponse{}, err
	}
	return c.generate(ctx, model, prompt)
}

// GenerateStructured asks Gemini for JSON constrained by schema.
func (c *GeminiClient) GenerateStructured(ctx context.Context, prompt string, schema Schema) (ContentResponse, error) {
	model, err := c.model(ctx)
	if err != nil {
		return ContentResponse{}, err
	}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = toGenaiSchema(schema.Definition)
	return c.generate(ctx, model, prompt)
}

func (c *GeminiClient) model(ctx context.Context) (*genai.GenerativeModel, error) {
	if c.opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		client, err := genai.NewClient(ctx, option.WithAPIKey(c.opts.APIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		c.client = client
	}

	model := c.client.GenerativeModel(c.opts.Model)
	if c.opts.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(c.opts.System))
	}
	if c.opts.Temperature > 0 {
		model.SetTemperature(float32(c.opts.Temperature))
	}
	if c.opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(c.opts.MaxTokens))
	}
	return model, nil
}

func (c *GeminiClient) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (ContentResponse, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return ContentResponse{}, fmt.Errorf("generated content is not text")
	}

	usage := shared.TokenUsage{Model: c.opts.Model}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return ContentResponse{Content: sb.String(), Usage: usage}, nil
}

// Close closes the underlying Gemini client.
func (c *GeminiClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// toGenaiSchema converts a JSON Schema map into the SDK's schema type.
// Only the keywords Gemini understands are carried over.
func toGenaiSchema(def map[string]any) *genai.Schema {
	if def == nil {
		return nil
	}
	s := &genai.Schema{}
	if t, ok := def["type"].(string); ok {
		switch t {
		case "object":
			s.Type = genai.TypeObject
		case "array":
			s.Type = genai.TypeArray
		case "string":
			s.Type = genai.TypeString
		case "number":
			s.Type = genai.TypeNumber
		case "integer":
			s.Type = genai.TypeInteger
		case "boolean":
			s.Type = genai.TypeBoolean
		}
	}
	if d, ok := def["description"].(string); ok {
		s.Description = d
	}
	if props, ok := def["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(pm)
			}
		}
	}
	if items, ok := def["items"].(map[string]any); ok {
		s.Items = toGenaiSchema(items)
	}
	switch req := def["required"].(type) {
	case []string:
		s.Required = append(s.Required, req...)
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	return s
}
