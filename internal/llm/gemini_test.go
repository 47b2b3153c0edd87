package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestToGenaiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"days": map[string]any{
				"type":        "array",
				"description": "one entry per day",
				"items": map[string]any{
					"type":       "object",
					"properties": map[string]any{"day": map[string]any{"type": "string"}},
					"required":   []any{"day"},
				},
			},
			"count": map[string]any{"type": "integer"},
		},
		"required": []string{"days"},
	}

	s := toGenaiSchema(def)
	if s.Type != genai.TypeObject {
		t.Fatalf("Expected object, got %v", s.Type)
	}
	days := s.Properties["days"]
	if days == nil || days.Type != genai.TypeArray || days.Description != "one entry per day" {
		t.Fatalf("Unexpected days schema %+v", days)
	}
	if days.Items == nil || days.Items.Properties["day"].Type != genai.TypeString {
		t.Errorf("Unexpected items schema %+v", days.Items)
	}
	if len(days.Items.Required) != 1 || days.Items.Required[0] != "day" {
		t.Errorf("Expected items to require day, got %v", days.Items.Required)
	}
	if s.Properties["count"].Type != genai.TypeInteger {
		t.Errorf("Expected integer, got %v", s.Properties["count"].Type)
	}
	if len(s.Required) != 1 || s.Required[0] != "days" {
		t.Errorf("Expected required [days], got %v", s.Required)
	}
}

func TestGeminiMissingKey(t *testing.T) {
	client := NewGeminiClient(Options{})
	defer client.Close()

	if _, err := client.GenerateStructured(context.Background(), "x", Schema{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}
