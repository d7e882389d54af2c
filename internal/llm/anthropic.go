package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Messager is the subset of the Anthropic SDK used here.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// anthropicClient implements the Client interface for the Anthropic Messages API.
type anthropicClient struct {
	messages    Messager
	model       string
	temperature float64
	maxTokens   int64
	timeout     time.Duration
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (*anthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	sdk := anthropic.NewClient(opts...)

	return newAnthropicClientWithMessager(cfg, &sdk.Messages), nil
}

func newAnthropicClientWithMessager(cfg Config, messages Messager) *anthropicClient {
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5"
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &anthropicClient{
		messages:    messages,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
	}
}

func (c *anthropicClient) Model() string { return c.model }

// Complete sends a message request. The API has no native schema mode, so the
// schema is appended to the system prompt.
func (c *anthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	system := req.System
	if req.Schema != nil {
		schemaJSON, err := json.Marshal(req.Schema)
		if err != nil {
			return Response{}, fmt.Errorf("failed to marshal schema: %w", err)
		}
		system = strings.TrimSpace(system + "\n\nThe reply must be a single JSON object conforming to this JSON Schema:\n" + string(schemaJSON))
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
		Temperature: anthropic.Float(c.temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return Response{}, statusFailure("anthropic", apiErr.StatusCode, err)
		}
		return Response{}, transportFailure("anthropic", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	model := string(resp.Model)
	if model == "" {
		model = c.model
	}

	return Response{
		Content: sb.String(),
		Model:   model,
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}
