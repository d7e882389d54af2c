// Package llm provides language model clients for payroll estimation.
// It supports OpenAI and Anthropic behind one Client interface, classifies
// transport failures, and offers an optional rate limiter.
package llm
