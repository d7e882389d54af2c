package llm

import (
	"fmt"
	"strings"
)

// NewClient creates a provider client from configuration. A positive
// RateLimit wraps it in a requests-per-minute limiter.
func NewClient(cfg Config) (Client, error) {
	var client Client

	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		c, err := newOpenAIClient(cfg)
		if err != nil {
			return nil, err
		}
		client = c
	case "anthropic":
		c, err := newAnthropicClient(cfg)
		if err != nil {
			return nil, err
		}
		client = c
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	if cfg.RateLimit > 0 {
		return NewRateLimited(client, cfg.RateLimit), nil
	}
	return client, nil
}
