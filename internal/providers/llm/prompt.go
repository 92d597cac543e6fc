package llm

import (
	"encoding/json"
	"fmt"

	"github.com/sandevgo/filepilot/internal/core"
)

// systemPrompt is the identity and capability prompt shared by every
// adapter. The vision clause is only included for models on the vision
// allow-list.
func systemPrompt(model string) string {
	prompt := "You are " + core.FilePilotName + ", a desktop AI assistant that helps the user find, organize and understand files on their computer.\n\n" +
		"You have two tools:\n" +
		"- findFile: search for files by name and metadata. Use this whenever the user wants to locate files. " +
		"Put several comma-separated synonyms into the query (e.g. \"resume, cv, curriculum vitae\") so the search casts a wide net.\n" +
		"- searchContent: search inside file contents. Use this when the user asks about what files contain.\n\n" +
		"Only call a tool when the user's request is about their files. For everything else, answer directly and concisely. " +
		"When summarizing search results, mention the most relevant files by name and where they live."

	if core.SupportsVision(model) {
		prompt += "\n\nYou can also see images the user attaches and answer questions about them."
	}
	return prompt
}

// summaryFallback is used when the summarization call fails or comes back
// empty.
func summaryFallback(n int) string {
	return fmt.Sprintf("Found %d files matching your search.", n)
}

// toolResultPayload renders a tool result as the compact JSON document fed
// back to the model for summarization.
func toolResultPayload(result core.ToolResult) string {
	type entry struct {
		Name     string `json:"name"`
		Path     string `json:"path"`
		Category string `json:"category,omitempty"`
		Score    *int   `json:"relevance_score,omitempty"`
	}

	payload := struct {
		FileCount int     `json:"file_count"`
		Files     []entry `json:"files"`
	}{FileCount: len(result.Data)}

	for _, f := range result.Data {
		payload.Files = append(payload.Files, entry{
			Name:     f.Name,
			Path:     f.Path,
			Category: f.Category,
			Score:    f.RelevanceScore,
		})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"file_count": %d}`, len(result.Data))
	}
	return string(data)
}

// fileListResponse assembles the final response for a completed tool round
// trip. Data always carries the tool result's file list, never anything
// the summary call produced.
func fileListResponse(provider, model, summary string, result core.ToolResult) (core.ChatResponse, error) {
	if summary == "" {
		summary = summaryFallback(len(result.Data))
	}
	return core.ChatResponse{
		Text:       summary,
		Type:       core.TypeFileList,
		Data:       result.Data,
		Provider:   provider,
		Model:      model,
		SearchInfo: result.SearchInfo,
	}, nil
}

// toolErrorResponse surfaces a failed tool execution as the final answer;
// summarizing an error has no value.
func toolErrorResponse(provider, model string, result core.ToolResult) (core.ChatResponse, error) {
	return core.ChatResponse{
		Text:     result.Text,
		Type:     core.TypeError,
		Provider: provider,
		Model:    model,
	}, nil
}

func textResponse(provider, model, text string) (core.ChatResponse, error) {
	return core.ChatResponse{
		Text:     text,
		Type:     core.TypeText,
		Provider: provider,
		Model:    model,
	}, nil
}
