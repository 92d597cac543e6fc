package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sandevgo/filepilot/internal/core"
	"github.com/sandevgo/filepilot/internal/service/relevance"
	"github.com/sandevgo/filepilot/pkg/log"
)

const (
	ToolFindFile      = "findFile"
	ToolSearchContent = "searchContent"
)

const findFileSchema = `
{
  "type": "object",
  "properties": {
    "query": { "type": "string", "description": "What to search for, e.g. file names or keywords. Use comma-separated synonyms for broad searches." },
    "file_types": { "type": "array", "items": { "type": "string" }, "description": "Optional list of file extensions to restrict to, e.g. [\"pdf\", \"docx\"]" },
    "search_path": { "type": "string", "description": "Optional directory to search under" }
  },
  "required": ["query"]
}
`

const searchContentSchema = `
{
  "type": "object",
  "properties": {
    "query": { "type": "string", "description": "Text to search for inside file contents" },
    "file_types": { "type": "array", "items": { "type": "string" }, "description": "Optional list of file extensions to restrict to" },
    "search_path": { "type": "string", "description": "Optional directory to search under" }
  },
  "required": ["query"]
}
`

// Definitions returns the canonical tool catalog attached to every
// provider call.
func Definitions() []core.ToolDefinition {
	return []core.ToolDefinition{
		{
			Name:        ToolFindFile,
			Description: "Search the user's computer for files by name and metadata. Returns a ranked file list.",
			Parameters:  json.RawMessage(findFileSchema),
		},
		{
			Name:        ToolSearchContent,
			Description: "Search inside file contents on the user's computer. Returns matching files with snippets.",
			Parameters:  json.RawMessage(searchContentSchema),
		},
	}
}

// Args is the internal argument shape shared by both tools.
type Args struct {
	Query      string   `json:"query"`
	FileTypes  []string `json:"file_types,omitempty"`
	SearchPath string   `json:"search_path,omitempty"`
}

// ParseArgs converts the loosely-typed arguments of a normalized tool
// invocation into Args.
func ParseArgs(raw map[string]any) (Args, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return Args{}, fmt.Errorf("marshal tool arguments: %w", err)
	}
	var args Args
	if err := json.Unmarshal(data, &args); err != nil {
		return Args{}, fmt.Errorf("invalid tool arguments: %w", err)
	}
	if args.Query == "" {
		return Args{}, fmt.Errorf("tool arguments missing query")
	}
	return args, nil
}

// ScoringContext carries what the relevance scorer needs to reuse the
// conversation's provider for its own call.
type ScoringContext struct {
	Provider    string
	APIKey      string
	Model       string
	UserMessage string
}

func (sc ScoringContext) target() relevance.Target {
	return relevance.Target{Provider: sc.Provider, APIKey: sc.APIKey, Model: sc.Model}
}

const (
	findFileMaxResults   = 100
	contentMaxResults    = 20
	activityCategorySrch = "search"
)

// Scorer filters and ranks file-search hits. Satisfied by
// *relevance.Scorer.
type Scorer interface {
	Score(ctx context.Context, files []core.SearchResult, userMessage, searchQuery string, target relevance.Target) []core.SearchResult
}

// Executor runs the two callable tools against the external search backend.
// It never lets an error escape: backend failures come back as error-typed
// tool results.
type Executor struct {
	backend  core.SearchBackend
	scorer   Scorer
	activity core.ActivityLogger
}

func NewExecutor(backend core.SearchBackend, scorer Scorer, activity core.ActivityLogger) *Executor {
	if activity == nil {
		activity = core.NopActivityLogger{}
	}
	return &Executor{backend: backend, scorer: scorer, activity: activity}
}

// Handles reports whether name is one of the two supported tools.
func (e *Executor) Handles(name string) bool {
	return name == ToolFindFile || name == ToolSearchContent
}

// Run dispatches a normalized tool invocation. Unknown tool names produce
// an error result, not a panic; adapters should have filtered them already.
func (e *Executor) Run(ctx context.Context, inv core.ToolInvocation, sc ScoringContext) core.ToolResult {
	args, err := ParseArgs(inv.Arguments)
	if err != nil {
		return e.errorResult(ctx, inv.Name, "", err)
	}

	switch inv.Name {
	case ToolFindFile:
		return e.FindFile(ctx, args, sc)
	case ToolSearchContent:
		return e.SearchContent(ctx, args, sc)
	default:
		return e.errorResult(ctx, inv.Name, args.Query, fmt.Errorf("unknown tool %q", inv.Name))
	}
}

// FindFile searches by file name/metadata and always routes the hits
// through the relevance scorer.
func (e *Executor) FindFile(ctx context.Context, args Args, sc ScoringContext) core.ToolResult {
	opts := core.SearchOptions{
		Mode:           "hybrid",
		MaxResults:     findFileMaxResults,
		IncludeIndices: true,
		SearchPath:     args.SearchPath,
	}

	resp, err := e.backend.AIFileSearch(ctx, args.Query, opts)
	if err != nil {
		return e.errorResult(ctx, ToolFindFile, args.Query, err)
	}

	files := convertResults(resp.MergedResults)
	original := len(files)
	files = filterByTypes(files, args.FileTypes)

	log.FromCtx(ctx).Debug().
		Str("query", args.Query).
		Int("hits", original).
		Int("after_type_filter", len(files)).
		Msg("file search complete")

	scored := e.scorer.Score(ctx, files, sc.UserMessage, args.Query, sc.target())

	info := &core.SearchInfo{
		Query:           args.Query,
		TotalResults:    len(scored),
		ExecutionTimeMs: resp.TotalExecutionTimeMs,
		Mode:            resp.Mode,
		OriginalResults: original,
	}
	if len(scored) < len(files) {
		info.FilterReason = "relevance filtering"
	}

	e.record(ctx, ToolFindFile, args.Query, len(scored), nil)

	return core.ToolResult{
		Type:       core.TypeFileList,
		Data:       scored,
		SearchInfo: info,
	}
}

// SearchContent searches inside files. Content queries are treated as
// already precise: the top hits are returned unscored.
func (e *Executor) SearchContent(ctx context.Context, args Args, sc ScoringContext) core.ToolResult {
	resp, err := e.backend.SearchContent(ctx, args.Query, core.SearchOptions{
		SearchPath: args.SearchPath,
	})
	if err != nil {
		return e.errorResult(ctx, ToolSearchContent, args.Query, err)
	}

	files := convertResults(resp.MergedResults)
	original := len(files)
	files = filterByTypes(files, args.FileTypes)
	if len(files) > contentMaxResults {
		files = files[:contentMaxResults]
	}

	info := &core.SearchInfo{
		Query:           args.Query,
		TotalResults:    len(files),
		ExecutionTimeMs: resp.TotalExecutionTimeMs,
		Mode:            resp.Mode,
		OriginalResults: original,
	}

	e.record(ctx, ToolSearchContent, args.Query, len(files), nil)

	return core.ToolResult{
		Type:       core.TypeFileList,
		Data:       files,
		SearchInfo: info,
	}
}

func (e *Executor) errorResult(ctx context.Context, tool, query string, err error) core.ToolResult {
	log.FromCtx(ctx).Error().Err(err).Str("tool", tool).Str("query", query).Msg("tool execution failed")
	e.record(ctx, tool, query, 0, err)

	return core.ToolResult{
		Type: core.TypeError,
		Text: fmt.Sprintf("File search failed: %v", err),
	}
}

func (e *Executor) record(ctx context.Context, tool, query string, results int, err error) {
	rec := core.ActivityRecord{
		Category: activityCategorySrch,
		Summary:  fmt.Sprintf("%s: %q", tool, query),
		Status:   core.ActivityStatusSuccess,
		Metadata: map[string]any{"results": results},
	}
	if err != nil {
		rec.Status = core.ActivityStatusError
		rec.Detail = err.Error()
	}
	e.activity.Record(ctx, rec)
}
