package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid config", config: Config{APIKey: "test-key"}},
		{name: "missing API key", config: Config{}, wantErr: true},
		{
			name:   "custom model and settings",
			config: Config{APIKey: "test-key", Model: "gpt-4o-mini", Temperature: 0.5, MaxTokens: 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newOpenAIClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestOpenAIClientComplete(t *testing.T) {
	var captured map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-4o-2024-08-06",
			"choices": [{"message": {"role": "assistant", "content": "{\"ok\": true}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3}
		}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL, Model: "gpt-4o"})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{
		System:     "system text",
		Prompt:     "user text",
		SchemaName: "estimation",
		Schema:     map[string]any{"type": "object"},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"ok": true}`, resp.Content)
	assert.Equal(t, "gpt-4o-2024-08-06", resp.Model)
	assert.Equal(t, 12, resp.Usage.InputTokens)

	assert.Equal(t, "gpt-4o", captured["model"])
	assert.InDelta(t, 0.0, captured["temperature"], 0)
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)

	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	schema, ok := format["json_schema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "estimation", schema["name"])
	assert.Equal(t, false, schema["strict"])
}

func TestOpenAIClientWithoutSchema(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Empty(t, resp.Content)
	assert.Equal(t, "gpt-4o", resp.Model)
	assert.NotContains(t, captured, "response_format")
}

func TestOpenAIClientErrors(t *testing.T) {
	tests := []struct {
		name      string
		wantKind  TransportKind
		status    int
		retryable bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantKind: KindRateLimited, retryable: true},
		{name: "server error", status: http.StatusBadGateway, wantKind: KindServer, retryable: true},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, wantKind: KindTimeout, retryable: true},
		{name: "unauthorized", status: http.StatusUnauthorized, wantKind: KindClient, retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": {"message": "nope"}}`))
			}))
			defer server.Close()

			client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), Request{Prompt: "p"})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrTransport)

			var terr *TransportError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tt.wantKind, terr.Kind)
			assert.Equal(t, tt.status, terr.StatusCode)
			assert.Equal(t, tt.retryable, terr.Retryable())
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestOpenAIClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Prompt: "p"})
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, KindTimeout, terr.Kind)
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(Config{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", c.Model())

	c, err = NewClient(Config{Provider: "Anthropic", APIKey: "k", Model: "claude-x"})
	require.NoError(t, err)
	assert.Equal(t, "claude-x", c.Model())

	c, err = NewClient(Config{Provider: "openai", APIKey: "k", RateLimit: 5})
	require.NoError(t, err)
	limited, ok := c.(*RateLimited)
	require.True(t, ok)
	limited.Close()

	_, err = NewClient(Config{Provider: "gemini", APIKey: "k"})
	assert.Error(t, err)

	_, err = NewClient(Config{Provider: "openai"})
	assert.Error(t, err)
}
