package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
	"github.com/ternarybob/stockreport/internal/models"
	"github.com/tidwall/gjson"
)

const (
	providerCompletion = "completion"

	// anthropicVersion is sent for endpoints that speak the Anthropic text-completion dialect.
	anthropicVersion = "2023-06-01"

	maxErrorBody = 4096
)

// completionRequest is the body posted to a raw text-completion endpoint.
type completionRequest struct {
	Prompt    string `json:"prompt"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

// CompletionService implements the NarrativeService interface against a raw
// {prompt, model, max_tokens} completion endpoint. The response is not trusted to be
// well formed; the narrative is read from the configured field and its absence is an error.
type CompletionService struct {
	config     *common.CompletionConfig
	logger     arbor.ILogger
	httpClient *http.Client
}

// NewCompletionService creates a completion endpoint client.
func NewCompletionService(completionConfig *common.CompletionConfig, logger arbor.ILogger) (*CompletionService, error) {
	if strings.TrimSpace(completionConfig.URL) == "" {
		return nil, fmt.Errorf("completion.url is required for the completion provider")
	}
	if strings.TrimSpace(completionConfig.APIKey) == "" {
		return nil, fmt.Errorf("API key is required for the completion provider (set via STOCKREPORT_COMPLETION_API_KEY or completion.api_key in config)")
	}
	if completionConfig.Field == "" {
		completionConfig.Field = "completion"
	}

	timeout, err := common.ParseDuration(completionConfig.Timeout, 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid completion timeout: %w", err)
	}

	return &CompletionService{
		config:     completionConfig,
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name identifies the provider.
func (s *CompletionService) Name() string {
	return providerCompletion
}

// Summarize posts the report prompt and extracts the narrative from the completion field.
func (s *CompletionService) Summarize(ctx context.Context, symbol string, metrics models.Metrics, dateRange models.DateRange) (string, error) {
	prompt, err := BuildPrompt(symbol, metrics, dateRange)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(completionRequest{
		// Text-completion models expect alternating conversation turns
		Prompt:    "\n\nHuman: " + prompt + "\n\nAssistant:",
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(payload))
	if err != nil {
		return "", &models.NarrativeError{Kind: models.NarrativeTransport, Provider: providerCompletion, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.config.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	startTime := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &models.NarrativeError{Kind: models.NarrativeTransport, Provider: providerCompletion,
			Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &models.NarrativeError{Kind: models.NarrativeTransport, Provider: providerCompletion,
			Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &models.NarrativeError{
			Kind:       models.NarrativeProviderRejected,
			Provider:   providerCompletion,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(body)), maxErrorBody),
		}
	}

	narrative, err := extractField(body, s.config.Field)
	if err != nil {
		return "", &models.NarrativeError{Kind: models.NarrativeMissingField, Provider: providerCompletion, Err: err}
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Str("prompt_version", PromptVersion).
		Int("response_length", len(narrative)).
		Dur("duration", time.Since(startTime)).
		Msg("Completion narrative generated")

	return narrative, nil
}

// extractField reads a non-empty string at path (gjson syntax, e.g. "completion" or "choices.0.text").
func extractField(body []byte, path string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errors.New("response body is not valid JSON")
	}
	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return "", fmt.Errorf("response has no %q field", path)
	}
	if result.Type != gjson.String {
		return "", fmt.Errorf("response field %q is %s, not a string", path, result.Type)
	}
	text := strings.TrimSpace(result.String())
	if text == "" {
		return "", fmt.Errorf("response field %q is empty", path)
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
