package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sandevgo/filepilot/pkg/log"
)

type AppConfig struct {
	// Base URL of the external file-search backend.
	SearchBackendURL string `env:"FILEPILOT_SEARCH_URL" envDefault:"http://127.0.0.1:8844"`

	// Base URL for the custom OpenAI-compatible provider. Required only
	// when the active provider is "custom".
	CustomBaseURL string `env:"FILEPILOT_CUSTOM_BASE_URL"`

	// Path of the SQLite activity log. Empty disables the audit trail.
	ActivityDBPath string `env:"FILEPILOT_ACTIVITY_DB" envDefault:".filepilot/activity.db"`

	// Token budget for the history sent to the provider; oldest messages
	// are dropped first.
	HistoryTokenBudget int `env:"FILEPILOT_HISTORY_TOKENS" envDefault:"6000"`

	Debug bool `env:"FILEPILOT_DEBUG" envDefault:"false"`
}

// NewAppConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func NewAppConfig(ctx context.Context) *AppConfig {
	_ = godotenv.Load()

	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse app config")
	}
	return c
}
