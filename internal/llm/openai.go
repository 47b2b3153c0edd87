package llm

import (
	"context"
	"errors"
	"fmt"

	"keto-planner/internal/shared"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIClient talks to the OpenAI chat completions API through openai-go.
// Retries are disabled: a failed call is reported once.
type OpenAIClient struct {
	provider string
	client   openai.Client
	opts     Options
}

// NewOpenAIClient creates a new OpenAI API client.
func NewOpenAIClient(opts Options) *OpenAIClient {
	if opts.Model == "" {
		opts.Model = defaultOpenAIModel
	}
	return newChatCompletions("openai", opts)
}

func newChatCompletions(provider string, opts Options) *OpenAIClient {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	return &OpenAIClient{provider: provider, client: openai.NewClient(reqOpts...), opts: opts}
}

// GenerateContent asks for freeform text.
func (c *OpenAIClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	return c.complete(ctx, c.params(prompt))
}

// GenerateStructured asks for a JSON document matching schema.
func (c *OpenAIClient) GenerateStructured(ctx context.Context, prompt string, schema Schema) (ContentResponse, error) {
	params := c.params(prompt)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        schema.Name,
				Description: openai.String(schema.Description),
				Schema:      schema.Definition,
				Strict:      openai.Bool(false),
			},
		},
	}
	return c.complete(ctx, params)
}

func (c *OpenAIClient) params(prompt string) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if c.opts.System != "" {
		messages = append(messages, openai.SystemMessage(c.opts.System))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.opts.Model),
		Messages: messages,
	}
	if c.opts.Temperature > 0 {
		params.Temperature = openai.Float(c.opts.Temperature)
	}
	if c.opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.opts.MaxTokens))
	}
	return params
}

func (c *OpenAIClient) complete(ctx context.Context, params openai.ChatCompletionNewParams) (ContentResponse, error) {
	if c.opts.APIKey == "" {
		return ContentResponse{}, ErrMissingAPIKey
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return ContentResponse{}, &APIError{Provider: c.provider, StatusCode: apiErr.StatusCode, Body: apiErr.Error()}
		}
		return ContentResponse{}, fmt.Errorf("failed to send request: %w", err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}

	return ContentResponse{
		Content: completion.Choices[0].Message.Content,
		Usage: shared.TokenUsage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
			Model:            completion.Model,
		},
	}, nil
}
