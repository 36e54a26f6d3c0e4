package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
)

// GenAIClient calls Gemini through the google.golang.org/genai SDK.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates a new SDK-backed Gemini client.
func NewGenAIClient(ctx context.Context, apiKey, modelName string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIClient{
		client: client,
		model:  modelName,
	}, nil
}

// Name returns the provider name.
func (c *GenAIClient) Name() string {
	return string(ProviderGenAI)
}

// Generate sends one GenerateContent call.
func (c *GenAIClient) Generate(ctx context.Context, req *model.GenerationRequest) (string, error) {
	safety := make([]*genai.SafetySetting, 0, 4)
	for _, category := range []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	} {
		safety = append(safety, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.PromptText), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		TopP:            genai.Ptr(float32(req.TopP)),
		TopK:            genai.Ptr(float32(req.TopK)),
		MaxOutputTokens: int32(req.MaxOutputTokens),
		SafetySettings:  safety,
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &ProviderError{Provider: c.Name(), StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return "", &ProviderError{Provider: c.Name(), Message: "request failed", Err: err}
	}

	text := resp.Text()
	if text == "" {
		return FallbackText, nil
	}
	return text, nil
}
