package gemini

import (
	"context"
	"testing"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
)

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), config.LLMConfig{Provider: "openai", APIKey: "k"}); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), config.LLMConfig{Provider: "gemini"}); err == nil {
		t.Fatal("expected error without API key")
	}
}
