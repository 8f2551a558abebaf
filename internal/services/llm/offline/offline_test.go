package offline

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/models"
)

func sampleMetrics() models.Metrics {
	return models.Metrics{
		Opening:          decimal.NewFromInt(100),
		Closing:          decimal.NewFromInt(102),
		Highest:          decimal.NewFromInt(110),
		Lowest:           decimal.NewFromInt(95),
		AverageVolume:    decimal.NewFromInt(1500),
		PercentageChange: decimal.NewFromInt(2),
		Bars:             2,
	}
}

func TestSummarize_Deterministic(t *testing.T) {
	service := NewNarrativeService(arbor.NewLogger())
	dateRange, err := models.ParseDateRange("2024-01-02", "2024-01-03")
	require.NoError(t, err)

	first, err := service.Summarize(context.Background(), "AAPL", sampleMetrics(), dateRange)
	require.NoError(t, err)
	second, err := service.Summarize(context.Background(), "AAPL", sampleMetrics(), dateRange)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for _, section := range []string{"## Overview", "## Key Metrics", "## Company Information", "## Analysis and Insights", "## Conclusion"} {
		assert.Contains(t, first, section)
	}
	assert.Contains(t, first, "AAPL gained 2.00%")
	assert.Contains(t, first, "- Highest price: $110.00")
	assert.Contains(t, first, "The trading range spanned $15.00, 15.00%")
	assert.Contains(t, first, "closed above its opening price")
	assert.Equal(t, "offline", service.Name())
}

func TestSummarize_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewNarrativeService(arbor.NewLogger()).Summarize(ctx, "AAPL", sampleMetrics(), models.DateRange{})
	var narrErr *models.NarrativeError
	require.True(t, errors.As(err, &narrErr))
	assert.Equal(t, models.NarrativeTransport, narrErr.Kind)
}
