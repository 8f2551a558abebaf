package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
	"github.com/ternarybob/stockreport/internal/models"
	"golang.org/x/time/rate"
)

// Client is an EODHD API client. It implements interfaces.MarketDataGateway.
type Client struct {
	baseURL    string
	apiKey     string
	exchange   string
	httpClient *http.Client
	timeout    time.Duration
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// NewClient creates a new EODHD API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		exchange: DefaultExchange,
		timeout:  DefaultTimeout,
		limiter:  newLimiter(DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c
}

// Name identifies the provider.
func (c *Client) Name() string {
	return providerName
}

// Fetch retrieves daily bars for symbol within dateRange, sorted ascending.
// Bare tickers get the configured exchange suffix; "NASDAQ:MSFT" style tickers are mapped.
func (c *Client) Fetch(ctx context.Context, symbol string, dateRange models.DateRange) (*models.SymbolSeries, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.New("symbol is required")
	}
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}

	eodSymbol := common.ParseTicker(symbol).EODHDSymbol(c.exchange)
	rows, err := c.GetEOD(ctx, eodSymbol, WithDateRange(dateRange.From, dateRange.To))
	if err != nil {
		return nil, toGatewayError(symbol, err)
	}

	series := &models.SymbolSeries{Symbol: symbol, Bars: make([]models.PriceBar, 0, len(rows))}
	for i, row := range rows {
		bar, err := row.toPriceBar(i)
		if err != nil {
			return nil, &models.GatewayError{Kind: models.GatewayDecode, Provider: providerName, Symbol: symbol, Err: err}
		}
		if dateRange.Contains(bar.Time()) {
			series.Bars = append(series.Bars, bar)
		}
	}

	sort.SliceStable(series.Bars, func(i, j int) bool {
		return series.Bars[i].Timestamp < series.Bars[j].Timestamp
	})

	if c.logger != nil {
		c.logger.Debug().
			Str("symbol", symbol).
			Str("eodhd_symbol", eodSymbol).
			Int("bars", len(series.Bars)).
			Msg("EODHD end-of-day data fetched")
	}

	return series, nil
}

// GetEOD retrieves end-of-day price data for a symbol.
// Symbol format: TICKER.EXCHANGE (e.g., "AAPL.US", "GNP.AU")
func (c *Client) GetEOD(ctx context.Context, symbol string, opts ...QueryOption) (EODResponse, error) {
	params := &queryParams{
		Period: "d",
		Order:  "a",
	}
	for _, opt := range opts {
		opt(params)
	}

	queryParams := url.Values{}
	if !params.From.IsZero() {
		queryParams.Set("from", params.From.Format(models.DateLayout))
	}
	if !params.To.IsZero() {
		queryParams.Set("to", params.To.Format(models.DateLayout))
	}
	if params.Period != "" {
		queryParams.Set("period", params.Period)
	}
	if params.Order != "" {
		queryParams.Set("order", params.Order)
	}

	var result EODResponse
	if err := c.get(ctx, "/eod/"+url.PathEscape(symbol), queryParams, &result); err != nil {
		return nil, err
	}

	// Parse dates; rows with unparseable dates keep a zero Date and fail conversion
	for i := range result {
		if t, err := time.Parse(models.DateLayout, result[i].DateStr); err == nil {
			result[i].Date = t
		}
	}

	return result, nil
}

// decodeError marks a body that could not be decoded.
type decodeError struct{ err error }

func (e *decodeError) Error() string { return "failed to decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	// Add API token
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("EODHD API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &decodeError{err: err}
	}

	return nil
}

// toGatewayError classifies a client error into the gateway taxonomy.
func toGatewayError(symbol string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &models.GatewayError{
			Kind:       models.GatewayProviderRejected,
			Provider:   providerName,
			Symbol:     symbol,
			StatusCode: apiErr.StatusCode,
			Body:       apiErr.Message,
			Err:        err,
		}
	}
	var decErr *decodeError
	if errors.As(err, &decErr) {
		return &models.GatewayError{Kind: models.GatewayDecode, Provider: providerName, Symbol: symbol, Err: err}
	}
	return &models.GatewayError{Kind: models.GatewayTransport, Provider: providerName, Symbol: symbol, Err: err}
}
