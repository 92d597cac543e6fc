package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sandevgo/filepilot/internal/core"
	"github.com/sandevgo/filepilot/internal/providers/search"
	"github.com/sandevgo/filepilot/pkg/log"
)

// ToolRunner executes normalized tool invocations. Satisfied by
// *search.Executor.
type ToolRunner interface {
	Handles(name string) bool
	Run(ctx context.Context, inv core.ToolInvocation, sc search.ScoringContext) core.ToolResult
}

// OpenAICompatible implements the two-phase conversational protocol over
// the OpenAI chat-completions wire format. OpenAI itself and custom
// endpoints both build on it.
type OpenAICompatible struct {
	baseProvider
	providerID string
	tools      ToolRunner
	authHeader string
	authPrefix string
}

type OpenAICompatibleConfig struct {
	ProviderID string
	BaseURL    string
	APIKey     string
	Model      string
	AuthHeader string // e.g., "Authorization"
	AuthPrefix string // e.g., "Bearer "
	Tools      ToolRunner
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	return &OpenAICompatible{
		baseProvider: newBaseProvider(cfg.BaseURL, cfg.APIKey, cfg.Model),
		providerID:   cfg.ProviderID,
		tools:        cfg.Tools,
		authHeader:   cfg.AuthHeader,
		authPrefix:   cfg.AuthPrefix,
	}
}

type oaImageURL struct {
	URL string `json:"url"`
}

type oaContentPart struct {
	Type     string      `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL *oaImageURL `json:"image_url,omitempty"`
}

type oaFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type oaToolCall struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Function oaFunctionCall `json:"function"`
}

type oaMessage struct {
	Role       string       `json:"role"`
	Content    any          `json:"content"` // string or []oaContentPart
	ToolCalls  []oaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
}

func oaContent(text string, images []core.ImageAttachment) any {
	if len(images) == 0 {
		return text
	}
	parts := []oaContentPart{{Type: "text", Text: text}}
	for _, img := range images {
		parts = append(parts, oaContentPart{
			Type: "image_url",
			ImageURL: &oaImageURL{
				URL: fmt.Sprintf("data:%s;base64,%s", img.MimeType, img.Base64),
			},
		})
	}
	return parts
}

func (o *OpenAICompatible) buildMessages(req core.ChatRequest) []oaMessage {
	msgs := []oaMessage{{Role: core.RoleSystem, Content: systemPrompt(o.model)}}
	for _, m := range req.History {
		msgs = append(msgs, oaMessage{Role: m.Role, Content: oaContent(m.Content, m.Images)})
	}
	msgs = append(msgs, oaMessage{Role: core.RoleUser, Content: oaContent(req.Message, req.Images)})
	return msgs
}

func oaTools() []map[string]any {
	var out []map[string]any
	for _, d := range search.Definitions() {
		out = append(out, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        d.Name,
				"description": d.Description,
				"parameters":  d.Parameters,
			},
		})
	}
	return out
}

func (o *OpenAICompatible) headers() map[string]string {
	headers := make(map[string]string)
	if o.authHeader != "" && o.apiKey != "" {
		headers[o.authHeader] = o.authPrefix + o.apiKey
	}
	return headers
}

type oaChoiceMessage struct {
	Content   *string      `json:"content"`
	ToolCalls []oaToolCall `json:"tool_calls"`
}

func (o *OpenAICompatible) complete(ctx context.Context, msgs []oaMessage, withTools bool) (oaChoiceMessage, error) {
	payload := map[string]any{
		"model":    o.model,
		"messages": msgs,
	}
	if withTools {
		payload["tools"] = oaTools()
	}

	resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", payload, o.headers())
	if err != nil {
		return oaChoiceMessage{}, err
	}
	data, err := readBody(resp)
	if err != nil {
		return oaChoiceMessage{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return oaChoiceMessage{}, apiError(o.providerID, resp.StatusCode, data)
	}

	var result struct {
		Choices []struct {
			Message oaChoiceMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return oaChoiceMessage{}, fmt.Errorf("decode: %w", err)
	}
	if len(result.Choices) == 0 {
		return oaChoiceMessage{}, fmt.Errorf("empty choices: %s", string(data))
	}
	return result.Choices[0].Message, nil
}

// Converse runs the full turn: initial call, optional tool execution, and
// the summarization call.
func (o *OpenAICompatible) Converse(ctx context.Context, req core.ChatRequest) (core.ChatResponse, error) {
	return o.converse(ctx, req, true)
}

func (o *OpenAICompatible) converse(ctx context.Context, req core.ChatRequest, withTools bool) (core.ChatResponse, error) {
	msgs := o.buildMessages(req)

	reply, err := o.complete(ctx, msgs, withTools)
	if err != nil {
		return core.ChatResponse{}, err
	}

	content := ""
	if reply.Content != nil {
		content = *reply.Content
	}

	// Only the first tool call is honored; extras are dropped.
	if !withTools || len(reply.ToolCalls) == 0 {
		return textResponse(o.providerID, o.model, content)
	}
	call := reply.ToolCalls[0]
	if !o.tools.Handles(call.Function.Name) {
		return textResponse(o.providerID, o.model, content)
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return core.ChatResponse{}, fmt.Errorf("parse tool arguments: %w", err)
	}

	req.Notify(fmt.Sprintf("Searching for %q...", queryOf(args)))

	result := o.tools.Run(ctx, core.ToolInvocation{
		ID:        call.ID,
		Name:      call.Function.Name,
		Arguments: args,
	}, search.ScoringContext{
		Provider:    o.providerID,
		APIKey:      o.apiKey,
		Model:       o.model,
		UserMessage: req.Message,
	})

	if result.Type == core.TypeError {
		return toolErrorResponse(o.providerID, o.model, result)
	}

	req.Notify(fmt.Sprintf("Summarizing %d results...", len(result.Data)))

	msgs = append(msgs,
		oaMessage{
			Role:      core.RoleAssistant,
			Content:   content,
			ToolCalls: []oaToolCall{call},
		},
		oaMessage{
			Role:       core.RoleTool,
			Content:    toolResultPayload(result),
			ToolCallID: call.ID,
		},
	)

	summary := ""
	if followUp, err := o.complete(ctx, msgs, false); err != nil {
		log.FromCtx(ctx).Warn().Err(err).
			Str("provider", o.providerID).
			Msg("summarization call failed, using fallback")
	} else if followUp.Content != nil {
		summary = *followUp.Content
	}

	return fileListResponse(o.providerID, o.model, summary, result)
}

func queryOf(args map[string]any) string {
	if q, ok := args["query"].(string); ok {
		return q
	}
	return ""
}
