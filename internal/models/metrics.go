package models

import "github.com/shopspring/decimal"

// Metrics are the summary statistics derived from a SymbolSeries.
type Metrics struct {
	Opening          decimal.Decimal `json:"opening"`
	Closing          decimal.Decimal `json:"closing"`
	Highest          decimal.Decimal `json:"highest"`
	Lowest           decimal.Decimal `json:"lowest"`
	AverageVolume    decimal.Decimal `json:"average_volume"`
	PercentageChange decimal.Decimal `json:"percentage_change"`
	Bars             int             `json:"bars"`
}
