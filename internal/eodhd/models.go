package eodhd

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/stockreport/internal/models"
)

// EODData represents a single day's end-of-day price data.
// Price fields are pointers so that an absent field is not read as zero.
type EODData struct {
	Date          time.Time        `json:"-"`
	DateStr       string           `json:"date"`
	Open          *decimal.Decimal `json:"open"`
	High          *decimal.Decimal `json:"high"`
	Low           *decimal.Decimal `json:"low"`
	Close         *decimal.Decimal `json:"close"`
	AdjustedClose *decimal.Decimal `json:"adjusted_close"`
	Volume        *decimal.Decimal `json:"volume"`
}

// EODResponse is a slice of EODData.
type EODResponse []EODData

// toPriceBar converts a parsed row into a PriceBar stamped at midnight UTC of its date.
func (d EODData) toPriceBar(index int) (models.PriceBar, error) {
	if d.Date.IsZero() {
		return models.PriceBar{}, &InvalidRowError{Index: index, Reason: "invalid date " + d.DateStr}
	}
	fields := []struct {
		name  string
		value *decimal.Decimal
	}{
		{"open", d.Open}, {"high", d.High}, {"low", d.Low}, {"close", d.Close}, {"volume", d.Volume},
	}
	for _, f := range fields {
		if f.value == nil {
			return models.PriceBar{}, &InvalidRowError{Index: index, Reason: "missing " + f.name}
		}
	}
	return models.PriceBar{
		Timestamp: d.Date.UnixMilli(),
		Open:      *d.Open,
		High:      *d.High,
		Low:       *d.Low,
		Close:     *d.Close,
		Volume:    *d.Volume,
	}, nil
}
