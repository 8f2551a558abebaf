package polygon

import (
	"github.com/shopspring/decimal"
	"github.com/ternarybob/stockreport/internal/models"
)

// Status values reported by the aggregates endpoint.
const (
	StatusOK            = "OK"
	StatusDelayed       = "DELAYED"
	StatusError         = "ERROR"
	StatusNotAuthorized = "NOT_AUTHORIZED"
)

// AggregatesResponse is the body of /v2/aggs/ticker/{ticker}/range/...
type AggregatesResponse struct {
	Ticker       string         `json:"ticker"`
	Adjusted     bool           `json:"adjusted"`
	Status       string         `json:"status"`
	QueryCount   int            `json:"queryCount"`
	ResultsCount int            `json:"resultsCount"`
	RequestID    string         `json:"request_id"`
	Error        string         `json:"error"`
	Message      string         `json:"message"`
	Results      []AggregateBar `json:"results"`
}

// rejected reports whether the body is a provider error delivered with a 2xx status.
func (r *AggregatesResponse) rejected() bool {
	return r.Status == StatusError || r.Status == StatusNotAuthorized
}

func (r *AggregatesResponse) errorText() string {
	if r.Error != "" {
		return r.Error
	}
	if r.Message != "" {
		return r.Message
	}
	return r.Status
}

// AggregateBar is one daily aggregate. Fields are pointers so that an absent
// field can be told apart from a zero value.
type AggregateBar struct {
	Open      *decimal.Decimal `json:"o"`
	High      *decimal.Decimal `json:"h"`
	Low       *decimal.Decimal `json:"l"`
	Close     *decimal.Decimal `json:"c"`
	Volume    *decimal.Decimal `json:"v"`
	VWAP      *decimal.Decimal `json:"vw,omitempty"`
	Timestamp *int64           `json:"t"`
	Trades    int64            `json:"n,omitempty"`
}

// toPriceBar validates the aggregate and converts it to a PriceBar.
func (a AggregateBar) toPriceBar(index int) (models.PriceBar, error) {
	switch {
	case a.Open == nil:
		return models.PriceBar{}, &MissingFieldError{Index: index, Field: "o"}
	case a.High == nil:
		return models.PriceBar{}, &MissingFieldError{Index: index, Field: "h"}
	case a.Low == nil:
		return models.PriceBar{}, &MissingFieldError{Index: index, Field: "l"}
	case a.Close == nil:
		return models.PriceBar{}, &MissingFieldError{Index: index, Field: "c"}
	case a.Volume == nil:
		return models.PriceBar{}, &MissingFieldError{Index: index, Field: "v"}
	case a.Timestamp == nil:
		return models.PriceBar{}, &MissingFieldError{Index: index, Field: "t"}
	}
	return models.PriceBar{
		Timestamp: *a.Timestamp,
		Open:      *a.Open,
		High:      *a.High,
		Low:       *a.Low,
		Close:     *a.Close,
		Volume:    *a.Volume,
	}, nil
}
