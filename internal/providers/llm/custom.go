package llm

import (
	"context"

	"github.com/sandevgo/filepilot/internal/core"
	"github.com/sandevgo/filepilot/pkg/log"
)

// CustomOpenAI talks to a user-supplied OpenAI-compatible endpoint. Not
// every such endpoint implements function calling, so a failed
// tool-augmented call is retried once without tools.
type CustomOpenAI struct {
	*OpenAICompatible
}

func NewCustomOpenAI(baseURL, apiKey, model string, tools ToolRunner) *CustomOpenAI {
	return &CustomOpenAI{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			ProviderID: core.ProviderCustom,
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Model:      model,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
			Tools:      tools,
		}),
	}
}

func (c *CustomOpenAI) Converse(ctx context.Context, req core.ChatRequest) (core.ChatResponse, error) {
	resp, err := c.converse(ctx, req, true)
	if err == nil {
		return resp, nil
	}

	log.FromCtx(ctx).Warn().Err(err).
		Str("base_url", c.baseURL).
		Msg("tool-augmented call failed, retrying without tools")

	return c.converse(ctx, req, false)
}
