package llm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/stockreport/internal/models"
)

func sampleMetrics() models.Metrics {
	return models.Metrics{
		Opening:          decimal.NewFromInt(100),
		Closing:          decimal.NewFromInt(102),
		Highest:          decimal.NewFromInt(110),
		Lowest:           decimal.NewFromInt(95),
		AverageVolume:    decimal.NewFromInt(1500),
		PercentageChange: decimal.RequireFromString("2.0"),
		Bars:             2,
	}
}

func sampleRange(t *testing.T) models.DateRange {
	t.Helper()
	r, err := models.ParseDateRange("2024-01-02", "2024-01-03")
	require.NoError(t, err)
	return r
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt("AAPL", sampleMetrics(), sampleRange(t))
	require.NoError(t, err)

	assert.Contains(t, prompt, "Symbol: AAPL")
	assert.Contains(t, prompt, "Date Range: 2024-01-02 to 2024-01-03")
	assert.Contains(t, prompt, "Opening Price: $100.00")
	assert.Contains(t, prompt, "Lowest Price: $95.00")
	assert.Contains(t, prompt, "Average Volume: 1500.00")
	assert.Contains(t, prompt, "Percentage Change: 2.00%")

	for _, section := range []string{"1. Overview", "2. Key Metrics", "3. Company Information", "4. Analysis and Insights", "5. Conclusion"} {
		assert.Contains(t, prompt, section)
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	a, err := BuildPrompt("MSFT", sampleMetrics(), sampleRange(t))
	require.NoError(t, err)
	b, err := BuildPrompt("MSFT", sampleMetrics(), sampleRange(t))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
