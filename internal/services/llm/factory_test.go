package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
)

func TestNewNarrativeService(t *testing.T) {
	logger := arbor.NewLogger()

	cfg := common.NewDefaultConfig()
	cfg.LLM.Provider = common.LLMProviderOffline
	service, err := NewNarrativeService(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "offline", service.Name())

	cfg.LLM.Provider = common.LLMProviderClaude
	cfg.Claude.APIKey = "k"
	service, err = NewNarrativeService(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "claude", service.Name())

	cfg.LLM.Provider = common.LLMProviderClaude
	cfg.Claude.APIKey = ""
	_, err = NewNarrativeService(context.Background(), cfg, logger)
	assert.Error(t, err, "a missing key fails at startup, not per symbol")

	cfg.LLM.Provider = common.LLMProviderOpenAI
	cfg.OpenAI.APIKey = "k"
	service, err = NewNarrativeService(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "openai", service.Name())

	cfg.LLM.Provider = "unknown"
	_, err = NewNarrativeService(context.Background(), cfg, logger)
	assert.Error(t, err)
}
