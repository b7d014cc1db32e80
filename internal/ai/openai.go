package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements LLMProvider against the chat completions API.
// Model names in GenerateOptions are Gemini identifiers, so calls always use the configured model.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a provider bound to one chat model.
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{client: openai.NewClient(apiKey), model: model}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, systemPrompt, userMessage string, opts GenerateOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: opts.Temperature,
	}
	if opts.MaxOutputTokens > 0 {
		req.MaxTokens = int(opts.MaxOutputTokens)
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
