// Package metrics derives summary statistics from a price series.
package metrics

import (
	"github.com/shopspring/decimal"
	"github.com/ternarybob/stockreport/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Compute derives the report metrics of series. Bars must already be sorted ascending,
// so the first bar opens the range and the last bar closes it.
//
// An empty series is an *models.ExtractorError wrapping models.ErrEmptySeries; a zero
// opening price is an error as well since no percentage change exists for it.
func Compute(series *models.SymbolSeries) (models.Metrics, error) {
	if series.Len() == 0 {
		symbol := ""
		if series != nil {
			symbol = series.Symbol
		}
		return models.Metrics{}, &models.ExtractorError{Kind: models.ExtractorEmptySeries, Symbol: symbol}
	}

	bars := series.Bars
	first, last := bars[0], bars[len(bars)-1]
	if first.Open.IsZero() {
		return models.Metrics{}, &models.ExtractorError{Kind: models.ExtractorZeroOpening, Symbol: series.Symbol}
	}

	highest, lowest := first.High, first.Low
	volume := decimal.Zero
	for _, bar := range bars {
		if bar.High.GreaterThan(highest) {
			highest = bar.High
		}
		if bar.Low.LessThan(lowest) {
			lowest = bar.Low
		}
		volume = volume.Add(bar.Volume)
	}

	return models.Metrics{
		Opening:          first.Open,
		Closing:          last.Close,
		Highest:          highest,
		Lowest:           lowest,
		AverageVolume:    volume.Div(decimal.NewFromInt(int64(len(bars)))),
		PercentageChange: last.Close.Sub(first.Open).Div(first.Open).Mul(hundred),
		Bars:             len(bars),
	}, nil
}
