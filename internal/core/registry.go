package core

import "strings"

// defaultModels is the model used when the credential store has no explicit
// selection for a provider. Custom endpoints must always name their model.
var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderGoogle:    "gemini-1.5-flash",
	ProviderAnthropic: "claude-3-5-sonnet-20241022",
	ProviderCustom:    "",
}

var modelCatalog = map[string][]string{
	ProviderOpenAI: {
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4-turbo",
		"gpt-3.5-turbo",
	},
	ProviderGoogle: {
		"gemini-1.5-pro",
		"gemini-1.5-flash",
		"gemini-2.0-flash",
	},
	ProviderAnthropic: {
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
		"claude-3-opus-20240229",
	},
}

// Providers lists every supported provider identifier.
func Providers() []string {
	return []string{ProviderOpenAI, ProviderGoogle, ProviderAnthropic, ProviderCustom}
}

// KnownProvider reports whether id names a supported provider.
func KnownProvider(id string) bool {
	_, ok := defaultModels[id]
	return ok
}

// DefaultModel returns the fallback model for a provider, empty if the
// provider is unknown or has no default.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// Models returns the static model catalog for a provider. Custom endpoints
// have no catalog.
func Models(provider string) []string {
	return modelCatalog[provider]
}

// visionModels are matched by case-insensitive substring against the
// selected model name. Substring matching is deliberately loose; keep all
// capability checks behind SupportsVision so the heuristic can be swapped
// for a real capability registry later.
var visionModels = []string{
	"gpt-4o",
	"gpt-4-turbo",
	"gpt-4.1",
	"gemini-1.5",
	"gemini-2.0",
	"claude-3",
}

// SupportsVision reports whether the model is on the vision allow-list.
func SupportsVision(model string) bool {
	m := strings.ToLower(model)
	for _, v := range visionModels {
		if strings.Contains(m, v) {
			return true
		}
	}
	return false
}
