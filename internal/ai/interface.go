package ai

import (
	"context"
)

// GenerateOptions carries the sampling parameters for a single completion call.
type GenerateOptions struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// LLMProvider is the text-completion gateway shared by the classifier, the options generators and the card generator.
// This interface allows swapping providers (Gemini, OpenAI) and substituting fakes in tests.
type LLMProvider interface {
	// Generate sends systemPrompt as the system instruction and userMessage as the single user turn,
	// returning the raw generated text.
	Generate(ctx context.Context, systemPrompt, userMessage string, opts GenerateOptions) (string, error)
}

// ProviderFunc adapts a plain function to LLMProvider.
type ProviderFunc func(ctx context.Context, systemPrompt, userMessage string, opts GenerateOptions) (string, error)

func (f ProviderFunc) Generate(ctx context.Context, systemPrompt, userMessage string, opts GenerateOptions) (string, error) {
	return f(ctx, systemPrompt, userMessage, opts)
}
