package llm

import (
	"keto-planner/internal/config"
)

// NewFromConfig builds the client for the configured provider. Credentials
// are checked per call, so a missing key never prevents startup.
func NewFromConfig(cfg *config.Config, system string) Generator {
	opts := Options{
		System:      system,
		Temperature: 0.7,
		Timeout:     cfg.PlanTimeout,
	}

	switch cfg.PlanProvider {
	case config.ProviderGroq:
		opts.APIKey = cfg.GroqAPIKey
		opts.Model = cfg.GroqModel
		return NewGroqClient(opts)
	case config.ProviderGemini:
		opts.APIKey = cfg.GeminiAPIKey
		opts.Model = cfg.GeminiModel
		return NewGeminiClient(opts)
	default:
		opts.APIKey = cfg.OpenAIAPIKey
		opts.Model = cfg.OpenAIModel
		opts.BaseURL = cfg.OpenAIBaseURL
		return NewOpenAIClient(opts)
	}
}
