package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and display format for calendar dates.
const DateLayout = "2006-01-02"

// PriceBar is one day's open/high/low/close/volume observation for a symbol.
// Timestamp is a Unix epoch in milliseconds; bars within a series are ascending.
type PriceBar struct {
	Timestamp int64           `json:"t"`
	Open      decimal.Decimal `json:"o"`
	High      decimal.Decimal `json:"h"`
	Low       decimal.Decimal `json:"l"`
	Close     decimal.Decimal `json:"c"`
	Volume    decimal.Decimal `json:"v"`
}

// Time returns the bar timestamp in UTC.
func (b PriceBar) Time() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}

// SymbolSeries is the time-ordered price history of one symbol for one run.
// It is never mutated after the gateway returns it.
type SymbolSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

// Len returns the number of bars in the series.
func (s *SymbolSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewDateRange builds a range with both bounds truncated to UTC midnight.
func NewDateRange(from, to time.Time) DateRange {
	return DateRange{From: TruncateDate(from), To: TruncateDate(to)}
}

// ParseDateRange parses two YYYY-MM-DD dates.
func ParseDateRange(from, to string) (DateRange, error) {
	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	t, err := time.Parse(DateLayout, to)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid to date %q: %w", to, err)
	}
	return NewDateRange(f, t), nil
}

// LookbackRange returns the range ending on the date of now and starting days earlier.
func LookbackRange(now time.Time, days int) DateRange {
	end := TruncateDate(now)
	return DateRange{From: end.AddDate(0, 0, -days), To: end}
}

// Validate reports an error when From is after To.
func (r DateRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return fmt.Errorf("date range bounds must be set")
	}
	if r.From.After(r.To) {
		return fmt.Errorf("invalid date range: from %s is after to %s", r.From.Format(DateLayout), r.To.Format(DateLayout))
	}
	return nil
}

// Contains reports whether the UTC calendar date of t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	d := TruncateDate(t)
	return !d.Before(TruncateDate(r.From)) && !d.After(TruncateDate(r.To))
}

func (r DateRange) String() string {
	return r.From.Format(DateLayout) + " to " + r.To.Format(DateLayout)
}

// TruncateDate drops the clock part of t and returns midnight UTC of its calendar date.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
