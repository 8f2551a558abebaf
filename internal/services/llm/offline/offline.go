// Package offline builds report narratives locally from the computed metrics.
// It makes no network calls and its output depends only on its inputs, which makes it
// the provider of choice for dry runs and tests.
package offline

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/models"
)

const providerName = "offline"

// NarrativeService implements interfaces.NarrativeService without any external provider.
type NarrativeService struct {
	logger arbor.ILogger
}

// NewNarrativeService creates an offline narrative service.
func NewNarrativeService(logger arbor.ILogger) *NarrativeService {
	return &NarrativeService{logger: logger}
}

// Name identifies the provider.
func (s *NarrativeService) Name() string {
	return providerName
}

// Summarize writes a five-section markdown narrative from the metrics.
func (s *NarrativeService) Summarize(ctx context.Context, symbol string, metrics models.Metrics, dateRange models.DateRange) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &models.NarrativeError{Kind: models.NarrativeTransport, Provider: providerName, Err: err}
	}

	var b strings.Builder

	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "%s %s %s%% between %s and %s, moving from $%s to $%s over %d trading days.\n\n",
		symbol, direction(metrics.PercentageChange), metrics.PercentageChange.Abs().StringFixed(2),
		dateRange.From.Format(models.DateLayout), dateRange.To.Format(models.DateLayout),
		metrics.Opening.StringFixed(2), metrics.Closing.StringFixed(2), metrics.Bars)

	b.WriteString("## Key Metrics\n\n")
	fmt.Fprintf(&b, "- Opening price: $%s\n", metrics.Opening.StringFixed(2))
	fmt.Fprintf(&b, "- Closing price: $%s\n", metrics.Closing.StringFixed(2))
	fmt.Fprintf(&b, "- Highest price: $%s\n", metrics.Highest.StringFixed(2))
	fmt.Fprintf(&b, "- Lowest price: $%s\n", metrics.Lowest.StringFixed(2))
	fmt.Fprintf(&b, "- Average volume: %s\n", metrics.AverageVolume.StringFixed(2))
	fmt.Fprintf(&b, "- Percentage change: %s%%\n\n", metrics.PercentageChange.StringFixed(2))

	b.WriteString("## Company Information\n\n")
	fmt.Fprintf(&b, "Company details for %s are not available without a narrative provider.\n\n", symbol)

	b.WriteString("## Analysis and Insights\n\n")
	fmt.Fprintf(&b, "The trading range spanned $%s, %s%% of the opening price.\n\n",
		metrics.Highest.Sub(metrics.Lowest).StringFixed(2), rangePercent(metrics))

	b.WriteString("## Conclusion\n\n")
	fmt.Fprintf(&b, "Over the period %s closed %s its opening price.\n", symbol, relation(metrics))

	s.logger.Debug().
		Str("symbol", symbol).
		Msg("Offline narrative generated")

	return b.String(), nil
}

func direction(pct decimal.Decimal) string {
	switch pct.Sign() {
	case 1:
		return "gained"
	case -1:
		return "lost"
	default:
		return "changed"
	}
}

func relation(m models.Metrics) string {
	switch m.Closing.Cmp(m.Opening) {
	case 1:
		return "above"
	case -1:
		return "below"
	default:
		return "level with"
	}
}

func rangePercent(m models.Metrics) string {
	if m.Opening.IsZero() {
		return "0.00"
	}
	return m.Highest.Sub(m.Lowest).Div(m.Opening).Mul(decimal.NewFromInt(100)).StringFixed(2)
}
