package core

import "encoding/json"

const (
	FilePilotName      = "FilePilot"
	FilePilotUserAgent = "FilePilot-Core/0.1"
	Version            = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Provider identifiers. Each maps to one adapter in internal/providers/llm.
const (
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderAnthropic = "anthropic"
	ProviderCustom    = "custom"
)

// ImageAttachment is an opaque image payload. Only MimeType and Base64 are
// used when encoding vision content for a provider.
type ImageAttachment struct {
	FileName string `json:"file_name"`
	Base64   string `json:"base64"`
	MimeType string `json:"mime_type"`
}

// ChatMessage is one entry of the caller-owned transcript, ordered
// oldest to newest. Role alternation is the caller's responsibility.
type ChatMessage struct {
	Role    string            `json:"role"`
	Content string            `json:"content"`
	Images  []ImageAttachment `json:"images,omitempty"`
}

// StatusFunc receives human-readable progress updates. It is invoked
// synchronously and must not block.
type StatusFunc func(status string)

// ChatRequest is the internal request shape handed to a ProviderAdapter.
// It is immutable for the duration of one Converse call.
type ChatRequest struct {
	Message  string
	History  []ChatMessage
	Images   []ImageAttachment
	OnStatus StatusFunc
}

// Notify reports a progress update if a callback is attached.
func (r ChatRequest) Notify(status string) {
	if r.OnStatus != nil {
		r.OnStatus(status)
	}
}

// ToolDefinition is the canonical internal tool shape. Adapters translate
// Parameters (a JSON Schema document) into their provider's dialect.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolInvocation is a normalized tool-call request parsed out of a
// provider response.
type ToolInvocation struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// SearchResult is one candidate file produced by the search backend and
// enriched by this core. Score is the backend's own 0-1 estimate;
// RelevanceScore is the 0-100 score and is only set after the scorer ran.
type SearchResult struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Path           string  `json:"path"`
	Size           string  `json:"size"`
	Category       string  `json:"category"`
	LastUsed       string  `json:"last_used,omitempty"`
	Score          float64 `json:"score,omitempty"`
	Source         string  `json:"source,omitempty"`
	Snippet        string  `json:"snippet,omitempty"`
	FileType       string  `json:"file_type,omitempty"`
	RelevanceScore *int    `json:"relevance_score,omitempty"`
	ScoreReason    string  `json:"score_reason,omitempty"`
}

type ResponseType string

const (
	TypeText     ResponseType = "text"
	TypeFileList ResponseType = "file_list"
	TypeAnalysis ResponseType = "analysis"
	TypeError    ResponseType = "error"
)

// SearchInfo is diagnostic metadata attached to tool-backed responses.
type SearchInfo struct {
	Query           string `json:"query"`
	TotalResults    int    `json:"total_results"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
	Mode            string `json:"mode"`
	OriginalResults int    `json:"original_results,omitempty"`
	FilterReason    string `json:"filter_reason,omitempty"`
}

// ChatResponse is the sole return shape of the orchestrator, identical
// for every provider.
type ChatResponse struct {
	Text       string         `json:"text"`
	Type       ResponseType   `json:"type"`
	Data       []SearchResult `json:"data,omitempty"`
	Provider   string         `json:"provider"`
	Model      string         `json:"model"`
	SearchInfo *SearchInfo    `json:"search_info,omitempty"`
}

// ToolResult is what the tool executor hands back to an adapter.
type ToolResult struct {
	Type       ResponseType
	Text       string
	Data       []SearchResult
	SearchInfo *SearchInfo
}
