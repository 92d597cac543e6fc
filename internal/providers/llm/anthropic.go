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

// Anthropic implements the two-phase protocol over the Messages API:
// system prompt as a top-level field, images as base64 source blocks, tool
// calls as tool_use content blocks answered with tool_result blocks.
type Anthropic struct {
	baseProvider
	tools ToolRunner
}

func NewAnthropic(apiKey, model string, tools ToolRunner) *Anthropic {
	return &Anthropic{
		baseProvider: newBaseProvider("https://api.anthropic.com", apiKey, model),
		tools:        tools,
	}
}

type aImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type aContentBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	Source    *aImageSource  `json:"source,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
}

type aMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []aContentBlock
}

func aContent(text string, images []core.ImageAttachment) any {
	if len(images) == 0 {
		return text
	}
	blocks := []aContentBlock{}
	for _, img := range images {
		blocks = append(blocks, aContentBlock{
			Type: "image",
			Source: &aImageSource{
				Type:      "base64",
				MediaType: img.MimeType,
				Data:      img.Base64,
			},
		})
	}
	blocks = append(blocks, aContentBlock{Type: "text", Text: text})
	return blocks
}

func (a *Anthropic) buildMessages(req core.ChatRequest) []aMessage {
	var msgs []aMessage
	for _, m := range req.History {
		if m.Role == core.RoleSystem {
			continue
		}
		msgs = append(msgs, aMessage{Role: m.Role, Content: aContent(m.Content, m.Images)})
	}
	msgs = append(msgs, aMessage{Role: core.RoleUser, Content: aContent(req.Message, req.Images)})
	return msgs
}

func aTools() []map[string]any {
	var out []map[string]any
	for _, d := range search.Definitions() {
		out = append(out, map[string]any{
			"name":         d.Name,
			"description":  d.Description,
			"input_schema": d.Parameters,
		})
	}
	return out
}

type aReply struct {
	text    string
	toolUse *aContentBlock
	blocks  []aContentBlock
}

func (a *Anthropic) complete(ctx context.Context, msgs []aMessage, withTools bool) (aReply, error) {
	payload := map[string]any{
		"model":      a.model,
		"max_tokens": 4096,
		"system":     systemPrompt(a.model),
		"messages":   msgs,
	}
	if withTools {
		payload["tools"] = aTools()
	}

	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": "2023-06-01",
	}

	resp, err := a.doRequest(ctx, http.MethodPost, "/v1/messages", payload, headers)
	if err != nil {
		return aReply{}, err
	}
	data, err := readBody(resp)
	if err != nil {
		return aReply{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return aReply{}, apiError(core.ProviderAnthropic, resp.StatusCode, data)
	}

	var result struct {
		Content []aContentBlock `json:"content"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return aReply{}, fmt.Errorf("decode: %w", err)
	}

	reply := aReply{blocks: result.Content}
	for i, block := range result.Content {
		switch block.Type {
		case "text":
			reply.text += block.Text
		case "tool_use":
			if reply.toolUse == nil {
				reply.toolUse = &result.Content[i]
			}
		}
	}
	return reply, nil
}

func (a *Anthropic) Converse(ctx context.Context, req core.ChatRequest) (core.ChatResponse, error) {
	msgs := a.buildMessages(req)

	reply, err := a.complete(ctx, msgs, true)
	if err != nil {
		return core.ChatResponse{}, err
	}

	// Only the first tool_use block is honored.
	if reply.toolUse == nil || !a.tools.Handles(reply.toolUse.Name) {
		return textResponse(core.ProviderAnthropic, a.model, reply.text)
	}

	req.Notify(fmt.Sprintf("Searching for %q...", queryOf(reply.toolUse.Input)))

	result := a.tools.Run(ctx, core.ToolInvocation{
		ID:        reply.toolUse.ID,
		Name:      reply.toolUse.Name,
		Arguments: reply.toolUse.Input,
	}, search.ScoringContext{
		Provider:    core.ProviderAnthropic,
		APIKey:      a.apiKey,
		Model:       a.model,
		UserMessage: req.Message,
	})

	if result.Type == core.TypeError {
		return toolErrorResponse(core.ProviderAnthropic, a.model, result)
	}

	req.Notify(fmt.Sprintf("Summarizing %d results...", len(result.Data)))

	msgs = append(msgs,
		aMessage{Role: core.RoleAssistant, Content: reply.blocks},
		aMessage{Role: core.RoleUser, Content: []aContentBlock{{
			Type:      "tool_result",
			ToolUseID: reply.toolUse.ID,
			Content:   toolResultPayload(result),
		}}},
	)

	summary := ""
	if followUp, err := a.complete(ctx, msgs, false); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("summarization call failed, using fallback")
	} else {
		summary = followUp.text
	}

	return fileListResponse(core.ProviderAnthropic, a.model, summary, result)
}
