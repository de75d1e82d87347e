// Package llm provides the chat-completion clients used for synthesis.
package llm

import (
	"context"
	"errors"
	"fmt"

	"vca-advisor/internal/common/config"
	httpclient "vca-advisor/internal/common/http"
)

var (
	ErrMissingAPIKey   = errors.New("LLM_API_KEY_MISSING")
	ErrEmptyCompletion = errors.New("LLM_EMPTY_COMPLETION")
)

// CompletionRequest is a single system + user exchange.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	JSONResponse bool
}

// Client performs one non-streaming completion and returns the raw text of
// the first choice.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Provider() string
}

// New builds the client for cfg.Provider. A missing API key is not an error
// here; Complete reports ErrMissingAPIKey instead.
func New(ctx context.Context, cfg config.LLMConfig, httpClient *httpclient.Client) (Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		return NewOpenAIClient(cfg, httpClient), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg, httpClient)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
