package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
)

const (
	// DefaultGeminiURL is the models collection of the generative language API.
	DefaultGeminiURL = "https://generativelanguage.googleapis.com/v1/models"
	// DefaultGeminiModel is the model used when none is configured.
	DefaultGeminiModel = "gemini-2.0-flash-lite"

	maxResponseBytes = 8 * 1024 * 1024
)

var harmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	SafetySettings   []geminiSafetySetting  `json:"safetySettings,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
	Error *geminiError `json:"error"`
}

// GeminiClient calls the generateContent REST endpoint directly.
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewGeminiClient creates a new Gemini REST client. A nil httpClient uses http.DefaultClient.
func NewGeminiClient(apiKey, modelName, baseURL string, httpClient *http.Client) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	if baseURL == "" {
		baseURL = DefaultGeminiURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &GeminiClient{
		httpClient: httpClient,
		apiKey:     apiKey,
		model:      modelName,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return string(ProviderGemini)
}

func (c *GeminiClient) endpoint() string {
	return fmt.Sprintf("%s/%s:generateContent?%s", c.baseURL, c.model, url.Values{"key": {c.apiKey}}.Encode())
}

// Generate sends one generateContent call and extracts the first candidate's text.
func (c *GeminiClient) Generate(ctx context.Context, req *model.GenerationRequest) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.PromptText}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			TopK:            req.TopK,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	}
	for _, category := range harmCategories {
		payload.SafetySettings = append(payload.SafetySettings, geminiSafetySetting{
			Category:  category,
			Threshold: "BLOCK_MEDIUM_AND_ABOVE",
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Provider: c.Name(), Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &ProviderError{Provider: c.Name(), StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	var decoded geminiResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := http.StatusText(resp.StatusCode)
		if decodeErr == nil && decoded.Error != nil && decoded.Error.Message != "" {
			message = decoded.Error.Message
		}
		return "", &ProviderError{Provider: c.Name(), StatusCode: resp.StatusCode, Message: message}
	}

	if decodeErr != nil {
		return FallbackText, nil
	}
	if decoded.Error != nil {
		return "", &ProviderError{Provider: c.Name(), Message: decoded.Error.Message}
	}

	return firstCandidateText(decoded), nil
}

func firstCandidateText(resp geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return FallbackText
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return FallbackText
	}
	return content.Parts[0].Text
}
