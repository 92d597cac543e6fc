package chat

import (
	"context"
	"fmt"

	"github.com/sandevgo/filepilot/internal/config"
	"github.com/sandevgo/filepilot/internal/core"
	"github.com/sandevgo/filepilot/internal/providers/llm"
	"github.com/sandevgo/filepilot/pkg/log"
)

// AdapterFactory builds the ProviderAdapter for one call. Swappable for
// tests.
type AdapterFactory func(ctx context.Context, provider, apiKey, model string) (core.ProviderAdapter, error)

// Orchestrator is the top-level entry point: it resolves the active
// provider, dispatches to its adapter, and guarantees that every call
// resolves to a ChatResponse. No error ever crosses this boundary.
type Orchestrator struct {
	creds   core.CredentialStore
	factory AdapterFactory
	trimmer *historyTrimmer
}

func NewOrchestrator(creds core.CredentialStore, cfg *config.AppConfig, tools llm.ToolRunner) *Orchestrator {
	return &Orchestrator{
		creds: creds,
		factory: func(ctx context.Context, provider, apiKey, model string) (core.ProviderAdapter, error) {
			return llm.NewAdapter(ctx, provider, apiKey, model, llm.Deps{
				Tools:         tools,
				CustomBaseURL: cfg.CustomBaseURL,
			})
		},
		trimmer: newHistoryTrimmer(cfg.HistoryTokenBudget),
	}
}

// Chat runs one conversational turn. onStatus is optional and is invoked
// synchronously at state transitions; it must not block.
func (o *Orchestrator) Chat(ctx context.Context, message string, history []core.ChatMessage, onStatus core.StatusFunc, images []core.ImageAttachment) core.ChatResponse {
	provider := o.creds.ActiveProvider()
	if provider == "" || !o.creds.HasKey(provider) {
		return errorResponse("", "",
			"No AI provider is configured. Add an API key for OpenAI, Google, Anthropic or a custom endpoint in settings to start chatting.")
	}

	apiKey, err := o.creds.LoadKey(provider)
	if err != nil {
		return errorResponse(provider, "",
			fmt.Sprintf("Could not load the API key for %s: %v. Please re-enter it in settings.", provider, err))
	}

	model := o.creds.LoadModel(provider)
	if model == "" {
		model = core.DefaultModel(provider)
	}

	notify(onStatus, fmt.Sprintf("Using %s...", provider))

	history = o.trimmer.Trim(ctx, history)

	adapter, err := o.factory(ctx, provider, apiKey, model)
	if err != nil {
		return errorResponse(provider, model, fmt.Sprintf("Could not start %s: %v", provider, err))
	}

	resp, err := adapter.Converse(ctx, core.ChatRequest{
		Message:  message,
		History:  history,
		Images:   images,
		OnStatus: onStatus,
	})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).
			Str("provider", provider).
			Str("model", model).
			Msg("chat turn failed")
		return errorResponse(provider, model, fmt.Sprintf("Error from %s: %v", provider, err))
	}

	return resp
}

func notify(onStatus core.StatusFunc, status string) {
	if onStatus != nil {
		onStatus(status)
	}
}

func errorResponse(provider, model, text string) core.ChatResponse {
	return core.ChatResponse{
		Text:     text,
		Type:     core.TypeError,
		Provider: provider,
		Model:    model,
	}
}
