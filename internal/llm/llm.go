// Package llm defines the text-generation capability agents depend on and
// the wrappers shared by provider clients. Providers live in subpackages.
package llm

import "context"

// Request is a single prompt-to-text call.
type Request struct {
	Prompt       string
	SystemPrompt string
	Model        string
	Temperature  float64
	MaxTokens    int
}

// Response carries the generated text.
type Response struct {
	Text  string
	Model string
}

// Generator turns a prompt into text. Implementations may fail; callers are
// expected to degrade rather than propagate.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (Response, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
