package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/filepilot/internal/core"
)

// EnvCredentials is a CredentialStore backed by environment variables, so
// the library works without a host application. Hosts with their own
// settings storage supply their own core.CredentialStore instead.
type EnvCredentials struct {
	Provider string `env:"FILEPILOT_PROVIDER"`

	OpenAIKey    string `env:"OPENAI_API_KEY"`
	GoogleKey    string `env:"GEMINI_API_KEY"`
	AnthropicKey string `env:"ANTHROPIC_API_KEY"`
	CustomKey    string `env:"FILEPILOT_CUSTOM_API_KEY"`

	OpenAIModel    string `env:"FILEPILOT_OPENAI_MODEL"`
	GoogleModel    string `env:"FILEPILOT_GOOGLE_MODEL"`
	AnthropicModel string `env:"FILEPILOT_ANTHROPIC_MODEL"`
	CustomModel    string `env:"FILEPILOT_CUSTOM_MODEL"`
}

func NewEnvCredentials() (*EnvCredentials, error) {
	c := &EnvCredentials{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return c, nil
}

func (c *EnvCredentials) ActiveProvider() string {
	if !core.KnownProvider(c.Provider) {
		return ""
	}
	return c.Provider
}

func (c *EnvCredentials) key(provider string) string {
	switch provider {
	case core.ProviderOpenAI:
		return c.OpenAIKey
	case core.ProviderGoogle:
		return c.GoogleKey
	case core.ProviderAnthropic:
		return c.AnthropicKey
	case core.ProviderCustom:
		return c.CustomKey
	}
	return ""
}

func (c *EnvCredentials) HasKey(provider string) bool {
	return c.key(provider) != ""
}

func (c *EnvCredentials) LoadKey(provider string) (string, error) {
	k := c.key(provider)
	if k == "" {
		return "", fmt.Errorf("no api key configured for provider %q", provider)
	}
	return k, nil
}

func (c *EnvCredentials) LoadModel(provider string) string {
	switch provider {
	case core.ProviderOpenAI:
		return c.OpenAIModel
	case core.ProviderGoogle:
		return c.GoogleModel
	case core.ProviderAnthropic:
		return c.AnthropicModel
	case core.ProviderCustom:
		return c.CustomModel
	}
	return ""
}
