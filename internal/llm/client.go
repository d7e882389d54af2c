package llm

import (
	"context"
	"time"
)

// Client sends one completion request to a language model provider.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Model() string
}

// Request is a single prompt with an optional response shape hint.
type Request struct {
	// Schema is a JSON Schema for the expected reply. Providers with native
	// structured output enforce it leniently; others receive it as an instruction.
	Schema     map[string]any
	System     string
	Prompt     string
	SchemaName string
}

// Response is the raw text returned by the provider.
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// Usage reports token consumption when the provider returns it.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Config holds provider settings.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	RateLimit   int
}
