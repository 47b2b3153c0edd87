package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a generation request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta holds operational metadata for one call to the generation service.
type AgentMeta struct {
	AgentName string
	Provider  string
	Usage     TokenUsage
	Latency   time.Duration
}

// Empty reports whether the provider returned no usage figures.
func (u TokenUsage) Empty() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}
