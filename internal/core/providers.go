package core

import "context"

// ProviderAdapter runs one full conversational turn against a single LLM
// backend, including the tool round trip when the model requests one.
type ProviderAdapter interface {
	Converse(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// CredentialStore supplies per-provider API keys and the currently active
// provider. A missing provider or key is a normal condition, not an error.
type CredentialStore interface {
	ActiveProvider() string // empty when nothing is configured
	HasKey(provider string) bool
	LoadKey(provider string) (string, error)
	LoadModel(provider string) string // empty means use the registry default
}

// SearchOptions narrows a backend query.
type SearchOptions struct {
	Mode           string   `json:"mode,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeIndices bool     `json:"include_indices,omitempty"`
	FileTypes      []string `json:"file_types,omitempty"`
	SearchPath     string   `json:"search_path,omitempty"`
}

// BackendResult is one raw hit from the external search backend.
type BackendResult struct {
	Path           string  `json:"path"`
	Size           int64   `json:"size,omitempty"`
	Modified       string  `json:"modified,omitempty"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
	SourceEngine   string  `json:"source_engine,omitempty"`
	Snippet        string  `json:"snippet,omitempty"`
	FileType       string  `json:"file_type,omitempty"`
}

// BackendResponse is the external search backend's reply shape, shared by
// file search and content search.
type BackendResponse struct {
	MergedResults        []BackendResult `json:"merged_results"`
	Query                string          `json:"query"`
	TotalExecutionTimeMs int64           `json:"total_execution_time_ms"`
	Mode                 string          `json:"mode"`
	Suggestions          []string        `json:"suggestions,omitempty"`
}

// SearchBackend is the sole source of filesystem truth. This core never
// touches the filesystem directly.
type SearchBackend interface {
	AIFileSearch(ctx context.Context, query string, opts SearchOptions) (BackendResponse, error)
	SearchContent(ctx context.Context, query string, opts SearchOptions) (BackendResponse, error)
}

const (
	ActivityStatusSuccess = "success"
	ActivityStatusError   = "error"
)

// ActivityRecord is one audit-trail entry.
type ActivityRecord struct {
	Category string
	Summary  string
	Detail   string
	Status   string
	Metadata map[string]any
}

// ActivityLogger is a write-only, fire-and-forget audit sink. Implementations
// must never propagate failures to the caller.
type ActivityLogger interface {
	Record(ctx context.Context, rec ActivityRecord)
}

// NopActivityLogger discards all records.
type NopActivityLogger struct{}

func (NopActivityLogger) Record(context.Context, ActivityRecord) {}
