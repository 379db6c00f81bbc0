// Package gemini generates text with Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/llm"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

type Client struct {
	client *genai.Client
	model  string
}

// New builds the configured client. Each attempt is bounded by cfg.Timeout
// and failed attempts are retried cfg.Retries times.
func New(ctx context.Context, cfg config.LLMConfig) (llm.Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gemini", "google":
	default:
		return nil, fmt.Errorf("llm: provider %q not supported", cfg.Provider)
	}

	c, err := NewClient(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, err
	}
	return llm.WithRetry(llm.WithTimeout(c, cfg.Timeout), cfg.Retries+1, 2*time.Second), nil
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return llm.Response{}, fmt.Errorf("gemini generate: %w", err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return llm.Response{}, errors.New("gemini: empty response")
	}
	return llm.Response{Text: text, Model: model}, nil
}
