package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vca-advisor/internal/common/config"
	httpclient "vca-advisor/internal/common/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// OpenAI-compatible client
// ==========================

func newOpenAIServer(t *testing.T, status int, body string, check func(r *http.Request, req chatRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if check != nil {
			check(r, req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_Complete(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":" {\"ok\":true} "}}]}`,
		func(r *http.Request, req chatRequest) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			assert.Equal(t, "gpt-4o-mini", req.Model)
			assert.InDelta(t, 0.2, req.Temperature, 1e-9)
			require.Len(t, req.Messages, 2)
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "sys", req.Messages[0].Content)
			assert.Equal(t, "user", req.Messages[1].Role)
			assert.Equal(t, "usr", req.Messages[1].Content)
			require.NotNil(t, req.ResponseFormat)
			assert.Equal(t, "json_object", req.ResponseFormat.Type)
		})

	c := NewOpenAIClient(config.LLMConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}, httpclient.NewClient(2*time.Second))
	out, err := c.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "sys",
		UserPrompt:   "usr",
		Temperature:  0.2,
		JSONResponse: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, config.ProviderOpenAI, c.Provider())
}

func TestOpenAIClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"non-2xx", http.StatusTooManyRequests, `{"error":"rate limited"}`, nil, "status 429"},
		{"no choices", http.StatusOK, `{"choices":[]}`, ErrEmptyCompletion, ""},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":"   "}}]}`, ErrEmptyCompletion, ""},
		{"not json", http.StatusOK, `oops`, nil, "unmarshal response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newOpenAIServer(t, tt.status, tt.body, nil)
			c := NewOpenAIClient(config.LLMConfig{APIKey: "k", BaseURL: srv.URL}, httpclient.NewClient(time.Second))

			_, err := c.Complete(context.Background(), CompletionRequest{UserPrompt: "x"})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestOpenAIClient_MissingKeySkipsNetwork(t *testing.T) {
	called := false
	srv := newOpenAIServer(t, http.StatusOK, `{}`, func(*http.Request, chatRequest) { called = true })

	c := NewOpenAIClient(config.LLMConfig{BaseURL: srv.URL}, httpclient.NewClient(time.Second))
	_, err := c.Complete(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.False(t, called)
}

// ==========================
// Gemini client
// ==========================

func TestGeminiClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		assert.Contains(t, r.URL.Path, "gemini-test")

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "systemInstruction")
		genCfg, _ := body["generationConfig"].(map[string]interface{})
		assert.Equal(t, "application/json", genCfg["responseMimeType"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"ok\":true}"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewGeminiClient(context.Background(), config.LLMConfig{
		APIKey:  "g-key",
		BaseURL: srv.URL,
		Model:   "gemini-test",
	}, httpclient.Wrap(srv.Client()))
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "sys",
		UserPrompt:   "usr",
		Temperature:  0.2,
		JSONResponse: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
}

func TestGeminiClient_MissingKey(t *testing.T) {
	c, err := NewGeminiClient(context.Background(), config.LLMConfig{}, nil)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

// ==========================
// Factory
// ==========================

func TestNew(t *testing.T) {
	ctx := context.Background()
	hc := httpclient.NewClient(time.Second)

	c, err := New(ctx, config.LLMConfig{Provider: config.ProviderOpenAI}, hc)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderOpenAI, c.Provider())

	c, err = New(ctx, config.LLMConfig{Provider: config.ProviderGemini}, hc)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderGemini, c.Provider())

	_, err = New(ctx, config.LLMConfig{Provider: "other"}, hc)
	assert.Error(t, err)
}
