// Package llm provides the generation client interface and its provider implementations.
package llm

import (
	"context"
	"fmt"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
)

// FallbackText is returned when a provider answers successfully but carries no text.
const FallbackText = "I'm sorry, I couldn't generate a response at this time."

// Generator is the interface for text-generation providers.
type Generator interface {
	// Generate issues exactly one provider call and returns the generated text.
	Generate(ctx context.Context, req *model.GenerationRequest) (string, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of generation provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderGenAI     Provider = "genai"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Options carries provider credentials and model selection.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a generator for the given provider.
func NewClient(ctx context.Context, provider Provider, opts Options) (Generator, error) {
	switch provider {
	case ProviderGemini, "":
		return NewGeminiClient(opts.APIKey, opts.Model, opts.BaseURL, nil)
	case ProviderGenAI:
		return NewGenAIClient(ctx, opts.APIKey, opts.Model)
	case ProviderOpenAI:
		return NewOpenAIClient(opts.APIKey, opts.Model)
	case ProviderAnthropic:
		return NewAnthropicClient(opts.APIKey, opts.Model)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", provider)
	}
}
