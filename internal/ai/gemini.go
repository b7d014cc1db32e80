package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when a call does not name a model.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements LLMProvider using Google's Gemini models.
// The underlying client is safe for concurrent use, so one provider serves every request.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Generate runs one generateContent call with a system instruction and a single user turn.
func (p *GeminiProvider) Generate(ctx context.Context, systemPrompt, userMessage string, opts GenerateOptions) (string, error) {
	name := opts.Model
	if name == "" {
		name = DefaultGeminiModel
	}

	// One GenerativeModel per call; its sampling fields are mutable.
	model := p.client.GenerativeModel(name)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	model.SetTemperature(opts.Temperature)
	if opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(opts.MaxOutputTokens)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userMessage))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w: no candidates", ErrEmptyResponse)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return text.String(), nil
}
