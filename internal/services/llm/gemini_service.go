package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
	"github.com/ternarybob/stockreport/internal/models"
	"google.golang.org/genai"
)

const providerGemini = "gemini"

// GeminiService implements the NarrativeService interface using Google Gemini.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiService creates a new Gemini narrative service instance.
// The API key comes from gemini.api_key, STOCKREPORT_GEMINI_API_KEY, GEMINI_API_KEY or GOOGLE_API_KEY.
func NewGeminiService(ctx context.Context, geminiConfig *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	if strings.TrimSpace(geminiConfig.APIKey) == "" {
		return nil, fmt.Errorf("Google API key is required for Gemini service (set via GEMINI_API_KEY, STOCKREPORT_GEMINI_API_KEY, or gemini.api_key in config)")
	}

	if geminiConfig.Model == "" {
		geminiConfig.Model = "gemini-2.5-flash"
	}

	timeout, err := common.ParseDuration(geminiConfig.Timeout, 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid gemini timeout: %w", err)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if geminiConfig.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: geminiConfig.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.Debug().
		Str("model", geminiConfig.Model).
		Dur("timeout", timeout).
		Msg("Gemini narrative service initialized")

	return &GeminiService{
		config:  geminiConfig,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}, nil
}

// Name identifies the provider.
func (s *GeminiService) Name() string {
	return providerGemini
}

// Summarize sends the report prompt and returns the generated narrative.
func (s *GeminiService) Summarize(ctx context.Context, symbol string, metrics models.Metrics, dateRange models.DateRange) (string, error) {
	prompt, err := BuildPrompt(symbol, metrics, dateRange)
	if err != nil {
		return "", err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(s.config.Temperature),
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
	}
	if s.config.MaxTokens > 0 {
		config.MaxOutputTokens = int32(s.config.MaxTokens)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	startTime := time.Now()
	resp, err := s.client.Models.GenerateContent(timeoutCtx, s.config.Model, contents, config)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", &models.NarrativeError{
			Kind:     models.NarrativeMissingField,
			Provider: providerGemini,
			Err:      errors.New("response has no candidates"),
		}
	}

	narrative := strings.TrimSpace(resp.Text())
	if narrative == "" {
		return "", &models.NarrativeError{
			Kind:     models.NarrativeMissingField,
			Provider: providerGemini,
			Err:      errors.New("response candidate has no text"),
		}
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Str("prompt_version", PromptVersion).
		Int("response_length", len(narrative)).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini narrative generated")

	return narrative, nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &models.NarrativeError{
			Kind:       models.NarrativeProviderRejected,
			Provider:   providerGemini,
			StatusCode: apiErr.Code,
			Body:       apiErr.Message,
			Err:        err,
		}
	}
	return &models.NarrativeError{Kind: models.NarrativeTransport, Provider: providerGemini, Err: err}
}
