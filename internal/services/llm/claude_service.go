package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
	"github.com/ternarybob/stockreport/internal/models"
)

const providerClaude = "claude"

// ClaudeService implements the NarrativeService interface using the Anthropic Messages API.
type ClaudeService struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    *anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// NewClaudeService creates a new Claude narrative service instance.
//
// The API key comes from claude.api_key, STOCKREPORT_CLAUDE_API_KEY or ANTHROPIC_API_KEY.
// SDK retries are disabled; a failed call is final for the symbol.
func NewClaudeService(claudeConfig *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeService, error) {
	if strings.TrimSpace(claudeConfig.APIKey) == "" {
		return nil, fmt.Errorf("Anthropic API key is required for Claude service (set via ANTHROPIC_API_KEY, STOCKREPORT_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	// Set default model name if not specified
	if claudeConfig.Model == "" {
		claudeConfig.Model = "claude-sonnet-4-20250514"
	}

	timeout, err := common.ParseDuration(claudeConfig.Timeout, 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid claude timeout: %w", err)
	}

	maxTokens := claudeConfig.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	opts := []option.RequestOption{
		option.WithAPIKey(claudeConfig.APIKey),
		option.WithMaxRetries(0),
	}
	if claudeConfig.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(claudeConfig.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	logger.Debug().
		Str("model", claudeConfig.Model).
		Dur("timeout", timeout).
		Float32("temperature", claudeConfig.Temperature).
		Int("max_tokens", maxTokens).
		Msg("Claude narrative service initialized")

	return &ClaudeService{
		config:    claudeConfig,
		logger:    logger,
		client:    &client,
		timeout:   timeout,
		maxTokens: maxTokens,
	}, nil
}

// Name identifies the provider.
func (s *ClaudeService) Name() string {
	return providerClaude
}

// Summarize sends the report prompt and returns the generated narrative.
func (s *ClaudeService) Summarize(ctx context.Context, symbol string, metrics models.Metrics, dateRange models.DateRange) (string, error) {
	prompt, err := BuildPrompt(symbol, metrics, dateRange)
	if err != nil {
		return "", err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}

	startTime := time.Now()
	resp, err := s.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return "", classifyClaudeError(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	narrative := strings.TrimSpace(text.String())
	if narrative == "" {
		return "", &models.NarrativeError{
			Kind:     models.NarrativeMissingField,
			Provider: providerClaude,
			Err:      errors.New("response has no text content block"),
		}
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Str("prompt_version", PromptVersion).
		Int("response_length", len(narrative)).
		Dur("duration", time.Since(startTime)).
		Msg("Claude narrative generated")

	return narrative, nil
}

func classifyClaudeError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &models.NarrativeError{
			Kind:       models.NarrativeProviderRejected,
			Provider:   providerClaude,
			StatusCode: apiErr.StatusCode,
			Body:       apiErr.Error(),
			Err:        err,
		}
	}
	return &models.NarrativeError{Kind: models.NarrativeTransport, Provider: providerClaude, Err: err}
}
