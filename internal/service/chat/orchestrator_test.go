package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sandevgo/filepilot/internal/config"
	"github.com/sandevgo/filepilot/internal/core"
	"github.com/sandevgo/filepilot/internal/providers/llm"
	"github.com/sandevgo/filepilot/internal/providers/search"
	"github.com/sandevgo/filepilot/internal/service/relevance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCreds struct {
	provider string
	keys     map[string]string
	models   map[string]string
}

func (s *stubCreds) ActiveProvider() string      { return s.provider }
func (s *stubCreds) HasKey(provider string) bool { return s.keys[provider] != "" }
func (s *stubCreds) LoadKey(provider string) (string, error) {
	if s.keys[provider] == "" {
		return "", errors.New("no key")
	}
	return s.keys[provider], nil
}
func (s *stubCreds) LoadModel(provider string) string { return s.models[provider] }

type stubAdapter struct {
	resp core.ChatResponse
	err  error
	req  core.ChatRequest
}

func (a *stubAdapter) Converse(_ context.Context, req core.ChatRequest) (core.ChatResponse, error) {
	a.req = req
	return a.resp, a.err
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{HistoryTokenBudget: 6000}
}

func orchestratorWith(creds core.CredentialStore, adapter core.ProviderAdapter, factoryErr error) *Orchestrator {
	o := NewOrchestrator(creds, testConfig(), nil)
	o.factory = func(_ context.Context, _, _, _ string) (core.ProviderAdapter, error) {
		if factoryErr != nil {
			return nil, factoryErr
		}
		return adapter, nil
	}
	return o
}

func TestChat_NoProviderConfigured(t *testing.T) {
	o := orchestratorWith(&stubCreds{}, nil, nil)

	resp := o.Chat(context.Background(), "hi", nil, nil, nil)

	assert.Equal(t, core.TypeError, resp.Type)
	assert.Contains(t, resp.Text, "API key")
}

func TestChat_ProviderWithoutKey(t *testing.T) {
	o := orchestratorWith(&stubCreds{provider: core.ProviderOpenAI}, nil, nil)

	resp := o.Chat(context.Background(), "hi", nil, nil, nil)

	assert.Equal(t, core.TypeError, resp.Type)
	assert.Contains(t, resp.Text, "API key")
}

func TestChat_AdapterErrorBecomesErrorResponse(t *testing.T) {
	creds := &stubCreds{provider: core.ProviderOpenAI, keys: map[string]string{core.ProviderOpenAI: "k"}}
	adapter := &stubAdapter{err: errors.New("OpenAI: rate limited")}
	o := orchestratorWith(creds, adapter, nil)

	resp := o.Chat(context.Background(), "hi", nil, nil, nil)

	assert.Equal(t, core.TypeError, resp.Type)
	assert.Contains(t, resp.Text, "openai")
	assert.Contains(t, resp.Text, "rate limited")
	assert.Equal(t, core.ProviderOpenAI, resp.Provider)
}

func TestChat_FactoryErrorBecomesErrorResponse(t *testing.T) {
	creds := &stubCreds{provider: core.ProviderCustom, keys: map[string]string{core.ProviderCustom: "k"}}
	o := orchestratorWith(creds, nil, errors.New("custom provider requires a base url"))

	resp := o.Chat(context.Background(), "hi", nil, nil, nil)

	assert.Equal(t, core.TypeError, resp.Type)
	assert.Contains(t, resp.Text, "base url")
}

func TestChat_PassesRequestThrough(t *testing.T) {
	creds := &stubCreds{
		provider: core.ProviderAnthropic,
		keys:     map[string]string{core.ProviderAnthropic: "k"},
		models:   map[string]string{core.ProviderAnthropic: "claude-3-opus-20240229"},
	}
	adapter := &stubAdapter{resp: core.ChatResponse{Text: "hello", Type: core.TypeText}}
	o := orchestratorWith(creds, adapter, nil)

	var statuses []string
	history := []core.ChatMessage{{Role: core.RoleUser, Content: "earlier"}}
	images := []core.ImageAttachment{{FileName: "x.png", Base64: "AA", MimeType: "image/png"}}

	resp := o.Chat(context.Background(), "hi", history, func(s string) { statuses = append(statuses, s) }, images)

	assert.Equal(t, core.TypeText, resp.Type)
	assert.Equal(t, "hi", adapter.req.Message)
	assert.Equal(t, history, adapter.req.History)
	assert.Equal(t, images, adapter.req.Images)
	require.NotEmpty(t, statuses)
	assert.Contains(t, statuses[0], "anthropic")
}

func TestChat_DefaultsModelFromRegistry(t *testing.T) {
	creds := &stubCreds{provider: core.ProviderGoogle, keys: map[string]string{core.ProviderGoogle: "k"}}
	adapter := &stubAdapter{resp: core.ChatResponse{Type: core.TypeText}}

	o := NewOrchestrator(creds, testConfig(), nil)
	var gotModel string
	o.factory = func(_ context.Context, _, _, model string) (core.ProviderAdapter, error) {
		gotModel = model
		return adapter, nil
	}

	o.Chat(context.Background(), "hi", nil, nil, nil)
	assert.Equal(t, core.DefaultModel(core.ProviderGoogle), gotModel)
}

// End-to-end: custom OpenAI-compatible provider triggers findFile, the
// scoring call fails, and the keyword fallback still yields a ranked
// file_list without surfacing any error.
func TestChat_EndToEnd_FindFileWithScoringFallback(t *testing.T) {
	// Search backend with three hits.
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := core.BackendResponse{
			MergedResults: []core.BackendResult{
				{Path: "/home/user/docs/resume.pdf", Size: 2048},
				{Path: "/home/user/docs/resume_old.pdf", Size: 1024},
				{Path: "/home/user/misc/todo.txt", Size: 64},
			},
			Mode:                 "hybrid",
			TotalExecutionTimeMs: 7,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer backendSrv.Close()

	// Scoring endpoint is down: forces the deterministic fallback.
	scoreSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "scoring offline", http.StatusBadGateway)
	}))
	defer scoreSrv.Close()

	// Chat endpoint: first call requests findFile, second summarizes.
	callNum := 0
	chatSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callNum++
		var reply map[string]any
		if callNum == 1 {
			reply = map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{
						"content": nil,
						"tool_calls": []map[string]any{{
							"id":   "call_1",
							"type": "function",
							"function": map[string]any{
								"name":      "findFile",
								"arguments": `{"query":"resume, cv"}`,
							},
						}},
					}},
				},
			}
		} else {
			reply = map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "Two resumes found in your docs folder."}},
				},
			}
		}
		json.NewEncoder(w).Encode(reply)
	}))
	defer chatSrv.Close()

	scorer := relevance.NewScorer(scoreSrv.URL)
	executor := search.NewExecutor(search.NewHTTPBackend(backendSrv.URL), scorer, nil)

	creds := &stubCreds{
		provider: core.ProviderCustom,
		keys:     map[string]string{core.ProviderCustom: "k"},
		models:   map[string]string{core.ProviderCustom: "local-model"},
	}

	o := NewOrchestrator(creds, testConfig(), executor)
	o.factory = func(_ context.Context, _, apiKey, model string) (core.ProviderAdapter, error) {
		return llm.NewOpenAICompatible(llm.OpenAICompatibleConfig{
			ProviderID: core.ProviderCustom,
			BaseURL:    chatSrv.URL,
			APIKey:     apiKey,
			Model:      model,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
			Tools:      executor,
		}), nil
	}

	resp := o.Chat(context.Background(), "find my resume", nil, nil, nil)

	assert.Equal(t, core.TypeFileList, resp.Type)
	assert.Equal(t, "Two resumes found in your docs folder.", resp.Text)
	require.Len(t, resp.Data, 3)

	// Keyword fallback ranking: exact stem match, then name, then default.
	assert.Equal(t, "resume.pdf", resp.Data[0].Name)
	assert.Equal(t, 95, *resp.Data[0].RelevanceScore)
	assert.Equal(t, "resume_old.pdf", resp.Data[1].Name)
	assert.Equal(t, 85, *resp.Data[1].RelevanceScore)
	assert.Equal(t, 50, *resp.Data[2].RelevanceScore)

	require.NotNil(t, resp.SearchInfo)
	assert.Equal(t, "resume, cv", resp.SearchInfo.Query)
	assert.Equal(t, 3, resp.SearchInfo.OriginalResults)
}
