package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
)

// OpenAIClient is the OpenAI generation client.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// DefaultOpenAIModel is the model used when none is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey, modelName string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if modelName == "" {
		modelName = DefaultOpenAIModel
	}

	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  modelName,
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return string(ProviderOpenAI)
}

// Generate sends a single-message chat completion. OpenAI has no top-k control.
func (c *OpenAIClient) Generate(ctx context.Context, req *model.GenerationRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.PromptText},
		},
		MaxTokens:   req.MaxOutputTokens,
		Temperature: float32(req.Temperature),
		TopP:        float32(req.TopP),
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &ProviderError{Provider: c.Name(), StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		return "", &ProviderError{Provider: c.Name(), Message: "request failed", Err: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return FallbackText, nil
	}
	return resp.Choices[0].Message.Content, nil
}
