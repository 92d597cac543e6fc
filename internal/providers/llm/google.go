package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/sandevgo/filepilot/internal/core"
	"github.com/sandevgo/filepilot/internal/providers/search"
	"github.com/sandevgo/filepilot/pkg/log"
)

// Google implements the two-phase protocol over the Gemini generateContent
// wire format: system instructions live outside the content list, tool
// schemas use the uppercase type dialect, and tool calls come back as
// functionCall parts.
type Google struct {
	baseProvider
	tools ToolRunner
}

func NewGoogle(apiKey, model string, tools ToolRunner) *Google {
	return &Google{
		baseProvider: newBaseProvider("https://generativelanguage.googleapis.com", apiKey, model),
		tools:        tools,
	}
}

type gInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type gFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type gFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type gPart struct {
	Text             string             `json:"text,omitempty"`
	InlineData       *gInlineData       `json:"inlineData,omitempty"`
	FunctionCall     *gFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *gFunctionResponse `json:"functionResponse,omitempty"`
}

type gContent struct {
	Role  string  `json:"role,omitempty"`
	Parts []gPart `json:"parts"`
}

func gParts(text string, images []core.ImageAttachment) []gPart {
	parts := []gPart{{Text: text}}
	for _, img := range images {
		parts = append(parts, gPart{
			InlineData: &gInlineData{MimeType: img.MimeType, Data: img.Base64},
		})
	}
	return parts
}

func gRole(role string) string {
	if role == core.RoleAssistant {
		return "model"
	}
	return "user"
}

func (g *Google) buildContents(req core.ChatRequest) []gContent {
	var contents []gContent
	for _, m := range req.History {
		if m.Role == core.RoleSystem {
			continue
		}
		contents = append(contents, gContent{Role: gRole(m.Role), Parts: gParts(m.Content, m.Images)})
	}
	contents = append(contents, gContent{Role: "user", Parts: gParts(req.Message, req.Images)})
	return contents
}

// toGeminiSchema rewrites a JSON Schema document into Gemini's uppercase
// type dialect (OBJECT, STRING, ARRAY, ...).
func toGeminiSchema(schema json.RawMessage) map[string]any {
	var doc map[string]any
	if err := json.Unmarshal(schema, &doc); err != nil {
		return map[string]any{"type": "OBJECT"}
	}
	upperTypes(doc)
	return doc
}

var geminiTypes = map[string]string{
	"object":  "OBJECT",
	"string":  "STRING",
	"number":  "NUMBER",
	"integer": "INTEGER",
	"boolean": "BOOLEAN",
	"array":   "ARRAY",
}

func upperTypes(doc map[string]any) {
	if t, ok := doc["type"].(string); ok {
		if u, known := geminiTypes[t]; known {
			doc["type"] = u
		}
	}
	for _, key := range []string{"items"} {
		if sub, ok := doc[key].(map[string]any); ok {
			upperTypes(sub)
		}
	}
	if props, ok := doc["properties"].(map[string]any); ok {
		for _, v := range props {
			if sub, ok := v.(map[string]any); ok {
				upperTypes(sub)
			}
		}
	}
}

func gTools() []map[string]any {
	var decls []map[string]any
	for _, d := range search.Definitions() {
		decls = append(decls, map[string]any{
			"name":        d.Name,
			"description": d.Description,
			"parameters":  toGeminiSchema(d.Parameters),
		})
	}
	return []map[string]any{{"functionDeclarations": decls}}
}

type gReply struct {
	text string
	call *gFunctionCall
}

func (g *Google) generate(ctx context.Context, contents []gContent, withTools bool) (gReply, error) {
	payload := map[string]any{
		"systemInstruction": gContent{Parts: []gPart{{Text: systemPrompt(g.model)}}},
		"contents":          contents,
	}
	if withTools {
		payload["tools"] = gTools()
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent?key=%s", g.model, url.QueryEscape(g.apiKey))
	resp, err := g.doRequest(ctx, http.MethodPost, path, payload, nil)
	if err != nil {
		return gReply{}, err
	}
	data, err := readBody(resp)
	if err != nil {
		return gReply{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return gReply{}, apiError(core.ProviderGoogle, resp.StatusCode, data)
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []gPart `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return gReply{}, fmt.Errorf("decode: %w", err)
	}
	if len(result.Candidates) == 0 {
		return gReply{}, fmt.Errorf("empty candidates: %s", string(data))
	}

	var reply gReply
	for _, p := range result.Candidates[0].Content.Parts {
		reply.text += p.Text
		if reply.call == nil && p.FunctionCall != nil {
			call := *p.FunctionCall
			reply.call = &call
		}
	}
	return reply, nil
}

func (g *Google) Converse(ctx context.Context, req core.ChatRequest) (core.ChatResponse, error) {
	contents := g.buildContents(req)

	reply, err := g.generate(ctx, contents, true)
	if err != nil {
		return core.ChatResponse{}, err
	}

	// Only the first functionCall part is honored.
	if reply.call == nil || !g.tools.Handles(reply.call.Name) {
		return textResponse(core.ProviderGoogle, g.model, reply.text)
	}

	req.Notify(fmt.Sprintf("Searching for %q...", queryOf(reply.call.Args)))

	result := g.tools.Run(ctx, core.ToolInvocation{
		ID:        uuid.NewString(),
		Name:      reply.call.Name,
		Arguments: reply.call.Args,
	}, search.ScoringContext{
		Provider:    core.ProviderGoogle,
		APIKey:      g.apiKey,
		Model:       g.model,
		UserMessage: req.Message,
	})

	if result.Type == core.TypeError {
		return toolErrorResponse(core.ProviderGoogle, g.model, result)
	}

	req.Notify(fmt.Sprintf("Summarizing %d results...", len(result.Data)))

	contents = append(contents,
		gContent{Role: "model", Parts: []gPart{{FunctionCall: reply.call}}},
		gContent{Role: "function", Parts: []gPart{{
			FunctionResponse: &gFunctionResponse{
				Name:     reply.call.Name,
				Response: map[string]any{"content": toolResultPayload(result)},
			},
		}}},
	)

	summary := ""
	if followUp, err := g.generate(ctx, contents, false); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("summarization call failed, using fallback")
	} else {
		summary = followUp.text
	}

	return fileListResponse(core.ProviderGoogle, g.model, summary, result)
}
