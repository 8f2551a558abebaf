package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
	"github.com/ternarybob/stockreport/internal/models"
)

const providerOpenAI = "openai"

// OpenAIService implements the NarrativeService interface using OpenAI Chat Completions.
type OpenAIService struct {
	config    *common.OpenAIConfig
	logger    arbor.ILogger
	client    *openai.Client
	timeout   time.Duration
	maxTokens int
}

// NewOpenAIService creates a new OpenAI narrative service instance.
// The API key comes from openai.api_key, STOCKREPORT_OPENAI_API_KEY or OPENAI_API_KEY.
func NewOpenAIService(openaiConfig *common.OpenAIConfig, logger arbor.ILogger) (*OpenAIService, error) {
	if strings.TrimSpace(openaiConfig.APIKey) == "" {
		return nil, fmt.Errorf("OpenAI API key is required for OpenAI service (set via OPENAI_API_KEY, STOCKREPORT_OPENAI_API_KEY, or openai.api_key in config)")
	}

	if openaiConfig.Model == "" {
		openaiConfig.Model = "gpt-4o-mini"
	}

	timeout, err := common.ParseDuration(openaiConfig.Timeout, 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid openai timeout: %w", err)
	}

	maxTokens := openaiConfig.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	opts := []option.RequestOption{
		option.WithAPIKey(openaiConfig.APIKey),
		option.WithMaxRetries(0),
	}
	if openaiConfig.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(openaiConfig.BaseURL))
	}
	client := openai.NewClient(opts...)

	logger.Debug().
		Str("model", openaiConfig.Model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("OpenAI narrative service initialized")

	return &OpenAIService{
		config:    openaiConfig,
		logger:    logger,
		client:    &client,
		timeout:   timeout,
		maxTokens: maxTokens,
	}, nil
}

// Name identifies the provider.
func (s *OpenAIService) Name() string {
	return providerOpenAI
}

// Summarize sends the report prompt as one chat completion and returns the first choice.
func (s *OpenAIService) Summarize(ctx context.Context, symbol string, metrics models.Metrics, dateRange models.DateRange) (string, error) {
	prompt, err := BuildPrompt(symbol, metrics, dateRange)
	if err != nil {
		return "", err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(int64(s.maxTokens)),
	}
	if s.config.Temperature > 0 {
		params.Temperature = openai.Float(float64(s.config.Temperature))
	}

	startTime := time.Now()
	resp, err := s.client.Chat.Completions.New(timeoutCtx, params)
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &models.NarrativeError{
			Kind:     models.NarrativeMissingField,
			Provider: providerOpenAI,
			Err:      errors.New("response has no choices"),
		}
	}

	narrative := strings.TrimSpace(resp.Choices[0].Message.Content)
	if narrative == "" {
		return "", &models.NarrativeError{
			Kind:     models.NarrativeMissingField,
			Provider: providerOpenAI,
			Err:      errors.New("first choice has no message content"),
		}
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Str("prompt_version", PromptVersion).
		Int("response_length", len(narrative)).
		Dur("duration", time.Since(startTime)).
		Msg("OpenAI narrative generated")

	return narrative, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &models.NarrativeError{
			Kind:       models.NarrativeProviderRejected,
			Provider:   providerOpenAI,
			StatusCode: apiErr.StatusCode,
			Body:       apiErr.Error(),
			Err:        err,
		}
	}
	return &models.NarrativeError{Kind: models.NarrativeTransport, Provider: providerOpenAI, Err: err}
}
