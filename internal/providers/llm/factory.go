package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/filepilot/internal/core"
	"github.com/sandevgo/filepilot/pkg/log"
)

// Deps carries what every adapter needs besides its credentials.
type Deps struct {
	Tools ToolRunner
	// CustomBaseURL is the endpoint for the "custom" provider.
	CustomBaseURL string
}

// NewAdapter creates the ProviderAdapter for a provider identifier.
func NewAdapter(ctx context.Context, provider, apiKey, model string, deps Deps) (core.ProviderAdapter, error) {
	log.FromCtx(ctx).Info().
		Str("provider", provider).
		Str("model", model).
		Msg("creating provider adapter")

	switch provider {
	case core.ProviderOpenAI:
		return NewOpenAI(apiKey, model, deps.Tools), nil
	case core.ProviderGoogle:
		return NewGoogle(apiKey, model, deps.Tools), nil
	case core.ProviderAnthropic:
		return NewAnthropic(apiKey, model, deps.Tools), nil
	case core.ProviderCustom:
		if deps.CustomBaseURL == "" {
			return nil, fmt.Errorf("custom provider requires a base url")
		}
		return NewCustomOpenAI(deps.CustomBaseURL, apiKey, model, deps.Tools), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}
