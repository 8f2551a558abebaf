package interfaces

import (
	"context"

	"github.com/ternarybob/stockreport/internal/models"
)

// MarketDataGateway fetches daily price bars for one symbol from a remote provider.
type MarketDataGateway interface {
	// Fetch returns the bars of symbol whose date lies within dateRange, sorted ascending
	// by timestamp. The series may be empty when the provider has no data for the range.
	// Failures are *models.GatewayError values; nothing is retried.
	Fetch(ctx context.Context, symbol string, dateRange models.DateRange) (*models.SymbolSeries, error)

	// Name identifies the provider in logs and errors.
	Name() string
}
