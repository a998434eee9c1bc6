package config

import (
	"fmt"
	"os"
)

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

// envKeys maps each provider to the environment variable consulted when
// api_key is not set in config.
var envKeys = map[Provider]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// ModelConfig selects the model used for both exploration guidance and the
// final synthesis call.
type ModelConfig struct {
	Provider    Provider `hcl:"provider,optional"`
	Name        string   `hcl:"name,optional"`
	APIKey      string   `hcl:"api_key,optional"`
	BaseURL     string   `hcl:"base_url,optional"`
	Temperature float64  `hcl:"temperature,optional"`
	MaxTokens   int      `hcl:"max_tokens,optional"`
}

func (m *ModelConfig) Defaults() {
	if m.Provider == "" {
		m.Provider = ProviderAnthropic
	}
	if m.Name == "" {
		switch m.Provider {
		case ProviderOpenAI:
			m.Name = "gpt-4o"
		case ProviderGemini:
			m.Name = "gemini-2.0-flash"
		default:
			m.Name = "claude-sonnet-4-20250514"
		}
	}
	if m.Temperature == 0 {
		m.Temperature = 0.2
	}
	if m.MaxTokens == 0 {
		m.MaxTokens = 8192
	}
}

func (m *ModelConfig) Validate() error {
	switch m.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported provider '%s' (expected 'openai', 'gemini', or 'anthropic')", m.Provider)
	}
	if m.ResolveAPIKey() == "" {
		return fmt.Errorf("no api key: set api_key or %s", envKeys[m.Provider])
	}
	return nil
}

// ResolveAPIKey returns the configured key, falling back to the provider's
// environment variable.
func (m *ModelConfig) ResolveAPIKey() string {
	if m.APIKey != "" {
		return m.APIKey
	}
	return os.Getenv(envKeys[m.Provider])
}
