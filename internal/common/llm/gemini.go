package llm

import (
	"context"
	"fmt"
	"strings"

	"vca-advisor/internal/common/config"
	httpclient "vca-advisor/internal/common/http"
	"vca-advisor/internal/common/metrics"

	"google.golang.org/genai"
)

// GeminiClient calls Gemini through the genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates the SDK client. With no API key the returned client
// fails every call with ErrMissingAPIKey.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, httpClient *httpclient.Client) (*GeminiClient, error) {
	model := cfg.Model
	if model == "" {
		model = config.DefaultGeminiModel
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return &GeminiClient{model: model}, nil
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient.HTTPClient()
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Provider() string { return config.ProviderGemini }

func (c *GeminiClient) Complete(ctx context.Context, in CompletionRequest) (string, error) {
	if c.client == nil {
		return "", ErrMissingAPIKey
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(in.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(float32(in.Temperature)),
	}
	if in.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(in.MaxTokens)
	}
	if in.JSONResponse {
		genCfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(in.UserPrompt), genCfg)
	if err != nil {
		metrics.RecordUpstream(metrics.UpstreamLLM, 0)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	metrics.RecordUpstream(metrics.UpstreamLLM, 200)

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
