package search

import (
	"context"
	"errors"
	"testing"

	"github.com/sandevgo/filepilot/internal/core"
	"github.com/sandevgo/filepilot/internal/service/relevance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	fileResp    core.BackendResponse
	contentResp core.BackendResponse
	err         error

	lastQuery string
	lastOpts  core.SearchOptions
}

func (f *fakeBackend) AIFileSearch(_ context.Context, query string, opts core.SearchOptions) (core.BackendResponse, error) {
	f.lastQuery, f.lastOpts = query, opts
	return f.fileResp, f.err
}

func (f *fakeBackend) SearchContent(_ context.Context, query string, opts core.SearchOptions) (core.BackendResponse, error) {
	f.lastQuery, f.lastOpts = query, opts
	return f.contentResp, f.err
}

type passthroughScorer struct {
	called bool
}

func (s *passthroughScorer) Score(_ context.Context, files []core.SearchResult, _, _ string, _ relevance.Target) []core.SearchResult {
	s.called = true
	for i := range files {
		v := 90 - i
		files[i].RelevanceScore = &v
	}
	if len(files) > 15 {
		files = files[:15]
	}
	return files
}

type capturingActivity struct {
	records []core.ActivityRecord
}

func (c *capturingActivity) Record(_ context.Context, rec core.ActivityRecord) {
	c.records = append(c.records, rec)
}

func backendResults(paths ...string) core.BackendResponse {
	var rs []core.BackendResult
	for _, p := range paths {
		rs = append(rs, core.BackendResult{Path: p, Size: 2048})
	}
	return core.BackendResponse{
		MergedResults:        rs,
		Mode:                 "hybrid",
		TotalExecutionTimeMs: 12,
	}
}

func TestFindFile_ScoresAndReports(t *testing.T) {
	backend := &fakeBackend{fileResp: backendResults("/docs/resume.pdf", "/docs/cv.docx")}
	scorer := &passthroughScorer{}
	activity := &capturingActivity{}
	e := NewExecutor(backend, scorer, activity)

	got := e.FindFile(context.Background(), Args{Query: "resume"}, ScoringContext{UserMessage: "find my resume"})

	assert.Equal(t, core.TypeFileList, got.Type)
	require.Len(t, got.Data, 2)
	assert.True(t, scorer.called)

	// Backend query options are pinned for findFile.
	assert.Equal(t, "hybrid", backend.lastOpts.Mode)
	assert.Equal(t, findFileMaxResults, backend.lastOpts.MaxResults)
	assert.True(t, backend.lastOpts.IncludeIndices)

	require.NotNil(t, got.SearchInfo)
	assert.Equal(t, "resume", got.SearchInfo.Query)
	assert.Equal(t, 2, got.SearchInfo.TotalResults)
	assert.Equal(t, int64(12), got.SearchInfo.ExecutionTimeMs)
	assert.Equal(t, "hybrid", got.SearchInfo.Mode)

	require.Len(t, activity.records, 1)
	assert.Equal(t, core.ActivityStatusSuccess, activity.records[0].Status)
}

func TestFindFile_TypeFilterBeforeScoring(t *testing.T) {
	backend := &fakeBackend{fileResp: backendResults("/docs/resume.pdf", "/docs/resume.txt")}
	e := NewExecutor(backend, &passthroughScorer{}, nil)

	got := e.FindFile(context.Background(), Args{Query: "resume", FileTypes: []string{"pdf"}}, ScoringContext{})

	require.Len(t, got.Data, 1)
	assert.Equal(t, "resume.pdf", got.Data[0].Name)
	assert.Equal(t, 2, got.SearchInfo.OriginalResults)
}

func TestFindFile_BackendError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("backend down")}
	activity := &capturingActivity{}
	e := NewExecutor(backend, &passthroughScorer{}, activity)

	got := e.FindFile(context.Background(), Args{Query: "resume"}, ScoringContext{})

	assert.Equal(t, core.TypeError, got.Type)
	assert.Contains(t, got.Text, "backend down")
	assert.Nil(t, got.Data)

	require.Len(t, activity.records, 1)
	assert.Equal(t, core.ActivityStatusError, activity.records[0].Status)
}

func TestSearchContent_Top20Unscored(t *testing.T) {
	paths := make([]string, 30)
	for i := range paths {
		paths[i] = "/notes/note" + string(rune('a'+i%26)) + ".md"
	}
	backend := &fakeBackend{contentResp: backendResults(paths...)}
	scorer := &passthroughScorer{}
	e := NewExecutor(backend, scorer, nil)

	got := e.SearchContent(context.Background(), Args{Query: "meeting"}, ScoringContext{})

	assert.Equal(t, core.TypeFileList, got.Type)
	assert.Len(t, got.Data, contentMaxResults)
	assert.False(t, scorer.called)
	for _, f := range got.Data {
		assert.Nil(t, f.RelevanceScore)
	}
}

func TestRun_Dispatch(t *testing.T) {
	backend := &fakeBackend{
		fileResp:    backendResults("/a.txt"),
		contentResp: backendResults("/b.txt"),
	}
	e := NewExecutor(backend, &passthroughScorer{}, nil)

	got := e.Run(context.Background(), core.ToolInvocation{
		Name:      ToolFindFile,
		Arguments: map[string]any{"query": "a"},
	}, ScoringContext{})
	assert.Equal(t, core.TypeFileList, got.Type)

	got = e.Run(context.Background(), core.ToolInvocation{
		Name:      ToolSearchContent,
		Arguments: map[string]any{"query": "b"},
	}, ScoringContext{})
	assert.Equal(t, core.TypeFileList, got.Type)

	got = e.Run(context.Background(), core.ToolInvocation{
		Name:      "formatDisk",
		Arguments: map[string]any{"query": "x"},
	}, ScoringContext{})
	assert.Equal(t, core.TypeError, got.Type)
}

func TestParseArgs(t *testing.T) {
	args, err := ParseArgs(map[string]any{
		"query":       "resume",
		"file_types":  []any{"pdf", "docx"},
		"search_path": "/home/user",
	})
	require.NoError(t, err)
	assert.Equal(t, "resume", args.Query)
	assert.Equal(t, []string{"pdf", "docx"}, args.FileTypes)
	assert.Equal(t, "/home/user", args.SearchPath)

	_, err = ParseArgs(map[string]any{})
	assert.Error(t, err)

	_, err = ParseArgs(map[string]any{"query": 42})
	assert.Error(t, err)
}

func TestHandles(t *testing.T) {
	e := NewExecutor(&fakeBackend{}, &passthroughScorer{}, nil)
	assert.True(t, e.Handles(ToolFindFile))
	assert.True(t, e.Handles(ToolSearchContent))
	assert.False(t, e.Handles("read_file"))
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, ToolFindFile, defs[0].Name)
	assert.Equal(t, ToolSearchContent, defs[1].Name)
	for _, d := range defs {
		assert.Contains(t, string(d.Parameters), `"query"`)
	}
}
