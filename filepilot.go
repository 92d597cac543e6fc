// Package filepilot is the multi-provider AI chat orchestration core of
// the FilePilot desktop assistant. Given a user message and conversation
// history it selects the active LLM provider, runs the provider's chat
// call with the file-search tool catalog attached, executes requested
// tool calls against the external search backend, relevance-filters the
// hits, and returns one provider-agnostic ChatResponse.
//
// The package holds no conversation state: callers own the history and
// pass it in on every call.
package filepilot

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/filepilot/internal/config"
	"github.com/sandevgo/filepilot/internal/core"
	"github.com/sandevgo/filepilot/internal/providers/search"
	"github.com/sandevgo/filepilot/internal/service/chat"
	"github.com/sandevgo/filepilot/internal/service/relevance"
	"github.com/sandevgo/filepilot/internal/storage/sqlite"
)

// Core vocabulary, re-exported for hosts.
type (
	ChatMessage     = core.ChatMessage
	ChatResponse    = core.ChatResponse
	ImageAttachment = core.ImageAttachment
	SearchResult    = core.SearchResult
	SearchInfo      = core.SearchInfo
	ResponseType    = core.ResponseType
	StatusFunc      = core.StatusFunc
	CredentialStore = core.CredentialStore
	SearchBackend   = core.SearchBackend
	ActivityLogger  = core.ActivityLogger
	ActivityRecord  = core.ActivityRecord
)

const (
	ProviderOpenAI    = core.ProviderOpenAI
	ProviderGoogle    = core.ProviderGoogle
	ProviderAnthropic = core.ProviderAnthropic
	ProviderCustom    = core.ProviderCustom

	TypeText     = core.TypeText
	TypeFileList = core.TypeFileList
	TypeAnalysis = core.TypeAnalysis
	TypeError    = core.TypeError

	RoleSystem    = core.RoleSystem
	RoleUser      = core.RoleUser
	RoleAssistant = core.RoleAssistant
)

// Providers lists the supported provider identifiers.
func Providers() []string { return core.Providers() }

// DefaultModel returns the fallback model for a provider.
func DefaultModel(provider string) string { return core.DefaultModel(provider) }

// Models returns the static model catalog for a provider.
func Models(provider string) []string { return core.Models(provider) }

// Options overrides the default wiring. Every field is optional.
type Options struct {
	// Credentials supplies API keys and the active provider. Defaults to
	// the environment-backed store.
	Credentials CredentialStore
	// Backend overrides the HTTP search backend from configuration.
	Backend SearchBackend
	// Activity overrides the SQLite audit trail from configuration.
	Activity ActivityLogger
}

// Client is the assembled orchestration core.
type Client struct {
	orchestrator *chat.Orchestrator
	db           *sql.DB
}

// New assembles a Client from environment configuration and opts.
func New(ctx context.Context, opts Options) (*Client, error) {
	cfg := config.NewAppConfig(ctx)

	creds := opts.Credentials
	if creds == nil {
		env, err := config.NewEnvCredentials()
		if err != nil {
			return nil, fmt.Errorf("load credentials: %w", err)
		}
		creds = env
	}

	var db *sql.DB
	activity := opts.Activity
	if activity == nil {
		if cfg.ActivityDBPath == "" {
			activity = core.NopActivityLogger{}
		} else {
			var err error
			db, err = sqlite.NewDB(ctx, cfg.ActivityDBPath)
			if err != nil {
				return nil, fmt.Errorf("open activity log: %w", err)
			}
			activity = sqlite.NewActivityLog(db)
		}
	}

	backend := opts.Backend
	if backend == nil {
		backend = search.NewHTTPBackend(cfg.SearchBackendURL)
	}

	scorer := relevance.NewScorer(cfg.CustomBaseURL)
	executor := search.NewExecutor(backend, scorer, activity)

	return &Client{
		orchestrator: chat.NewOrchestrator(creds, cfg, executor),
		db:           db,
	}, nil
}

// Chat runs one conversational turn. It always returns a ChatResponse;
// every failure mode is folded into a response with TypeError.
func (c *Client) Chat(ctx context.Context, message string, history []ChatMessage, onStatus StatusFunc, images []ImageAttachment) ChatResponse {
	return c.orchestrator.Chat(ctx, message, history, onStatus, images)
}

// Close releases the activity log database, if one was opened.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
