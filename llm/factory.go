package llm

import (
	"context"
	"fmt"
)

// NewProvider builds the Provider for a named backend. baseURL is only
// honored by the openai backend (OpenAI-compatible gateways).
func NewProvider(ctx context.Context, name, apiKey, baseURL string) (Provider, error) {
	switch name {
	case "openai":
		return NewOpenAIProvider(apiKey, baseURL), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey), nil
	case "gemini":
		return NewGeminiProvider(ctx, apiKey)
	default:
		return nil, fmt.Errorf("unknown model provider: %s (expected 'openai', 'anthropic' or 'gemini')", name)
	}
}
