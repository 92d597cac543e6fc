package llm

import (
	"context"
	"testing"

	"github.com/sandevgo/filepilot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdapter(t *testing.T) {
	deps := Deps{Tools: &stubTools{}, CustomBaseURL: "http://localhost:8080"}

	for _, provider := range []string{
		core.ProviderOpenAI,
		core.ProviderGoogle,
		core.ProviderAnthropic,
		core.ProviderCustom,
	} {
		adapter, err := NewAdapter(context.Background(), provider, "key", "model", deps)
		require.NoError(t, err, provider)
		assert.NotNil(t, adapter, provider)
	}
}

func TestNewAdapter_CustomRequiresBaseURL(t *testing.T) {
	_, err := NewAdapter(context.Background(), core.ProviderCustom, "key", "model", Deps{Tools: &stubTools{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base url")
}

func TestNewAdapter_UnknownProvider(t *testing.T) {
	_, err := NewAdapter(context.Background(), "mistral", "key", "model", Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}
