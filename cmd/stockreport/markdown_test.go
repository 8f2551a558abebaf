package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/stockreport/internal/models"
	"github.com/ternarybob/stockreport/internal/portfolio"
)

func TestSummaryMarkdown(t *testing.T) {
	dr, _ := models.ParseDateRange("2024-01-01", "2024-06-30")
	summary := &models.RunSummary{
		ID:        "run_test",
		Range:     dr,
		Requested: []string{"AAPL", "BAD", "EMPTY", "LATE"},
		Outcomes: []models.ReportOutcome{
			{Symbol: "AAPL", Status: models.OutcomeSuccess, Stage: models.StageDone, DocumentPath: "reports/2024-06-30/AAPL_summary.pdf", Duration: 1500 * time.Millisecond},
			{Symbol: "BAD", Status: models.OutcomeFailed, Stage: models.StageFetching, Reason: "status 404 | not found"},
			{Symbol: "EMPTY", Status: models.OutcomeFailed, Stage: models.StageExtracting, Reason: "empty", Err: &models.ExtractorError{Kind: models.ExtractorEmptySeries, Symbol: "EMPTY"}},
		},
		Cancelled: true,
	}

	md := summaryMarkdown(summary)

	assert.Contains(t, md, "# Report run run_test")
	assert.Contains(t, md, "| AAPL | success | Done | reports/2024-06-30/AAPL_summary.pdf | 1.5s |")
	assert.Contains(t, md, `status 404 \| not found`)
	assert.Contains(t, md, "| EMPTY | failed | Extracting | no data for range |")
	assert.Contains(t, md, "| LATE | skipped |")
	assert.Contains(t, md, "1 succeeded, 2 failed, 1 skipped (cancelled)")

	aapl := strings.Index(md, "| AAPL")
	bad := strings.Index(md, "| BAD")
	assert.Less(t, aapl, bad)
}

func TestPortfoliosMarkdown(t *testing.T) {
	assert.Contains(t, portfoliosMarkdown("p.txt", nil), "No saved portfolios.")

	md := portfoliosMarkdown("p.txt", []portfolio.Portfolio{{"AAPL", "MSFT"}, {"GOOG"}})
	assert.Contains(t, md, "| 1 | AAPL, MSFT |")
	assert.Contains(t, md, "| 2 | GOOG |")
}
