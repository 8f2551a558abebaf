package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
	"github.com/ternarybob/stockreport/internal/interfaces"
	"github.com/ternarybob/stockreport/internal/services/llm/offline"
)

// NewNarrativeService creates the narrative service selected by llm.provider.
func NewNarrativeService(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (interfaces.NarrativeService, error) {
	logger.Debug().Str("provider", string(cfg.LLM.Provider)).Msg("Initializing narrative service")

	switch cfg.LLM.Provider {
	case common.LLMProviderClaude:
		service, err := NewClaudeService(&cfg.Claude, logger)
		if err != nil {
			return nil, err
		}
		return service, nil

	case common.LLMProviderGemini:
		service, err := NewGeminiService(ctx, &cfg.Gemini, logger)
		if err != nil {
			return nil, err
		}
		return service, nil

	case common.LLMProviderOpenAI:
		service, err := NewOpenAIService(&cfg.OpenAI, logger)
		if err != nil {
			return nil, err
		}
		return service, nil

	case common.LLMProviderCompletion:
		service, err := NewCompletionService(&cfg.Completion, logger)
		if err != nil {
			return nil, err
		}
		return service, nil

	case common.LLMProviderOffline:
		return offline.NewNarrativeService(logger), nil

	default:
		return nil, fmt.Errorf("unsupported narrative provider: %s", cfg.LLM.Provider)
	}
}
