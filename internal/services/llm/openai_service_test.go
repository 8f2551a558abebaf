package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
	"github.com/ternarybob/stockreport/internal/models"
)

func newOpenAIService(t *testing.T, handler http.HandlerFunc) *OpenAIService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := common.NewDefaultConfig().OpenAI
	cfg.APIKey = "test-key"
	cfg.BaseURL = server.URL + "/v1/"
	cfg.Timeout = "5s"
	service, err := NewOpenAIService(&cfg, arbor.NewLogger())
	require.NoError(t, err)
	return service
}

func TestOpenAIService_Summarize(t *testing.T) {
	var body map[string]interface{}
	service := newOpenAIService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1704171600, "model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "## Overview\n\nSteady quarter."}}]
		}`))
	})

	narrative, err := service.Summarize(context.Background(), "AAPL", sampleMetrics(), sampleRange(t))
	require.NoError(t, err)
	assert.Equal(t, "## Overview\n\nSteady quarter.", narrative)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Len(t, body["messages"], 2)
	assert.Equal(t, "openai", service.Name())
}

func TestOpenAIService_NoChoices(t *testing.T) {
	service := newOpenAIService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "object": "chat.completion", "created": 1, "model": "m", "choices": []}`))
	})

	_, err := service.Summarize(context.Background(), "AAPL", sampleMetrics(), sampleRange(t))
	var narrErr *models.NarrativeError
	require.True(t, errors.As(err, &narrErr))
	assert.Equal(t, models.NarrativeMissingField, narrErr.Kind)
}

func TestOpenAIService_Rejected(t *testing.T) {
	calls := 0
	service := newOpenAIService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	})

	_, err := service.Summarize(context.Background(), "AAPL", sampleMetrics(), sampleRange(t))
	var narrErr *models.NarrativeError
	require.True(t, errors.As(err, &narrErr))
	assert.Equal(t, models.NarrativeProviderRejected, narrErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, narrErr.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestNewOpenAIService_RequiresKey(t *testing.T) {
	cfg := common.NewDefaultConfig().OpenAI
	_, err := NewOpenAIService(&cfg, arbor.NewLogger())
	assert.Error(t, err)
}
