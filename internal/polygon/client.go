package polygon

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

// maxErrorBody caps how much of a rejection body is kept on the error.
const maxErrorBody = 4096

// Client is a Polygon aggregates API client. It implements interfaces.MarketDataGateway.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// NewClient creates a new Polygon API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		timeout: DefaultTimeout,
		limiter: newLimiter(DefaultRateLimit),
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

// Fetch retrieves adjusted daily bars for symbol within dateRange, sorted ascending.
func (c *Client) Fetch(ctx context.Context, symbol string, dateRange models.DateRange) (*models.SymbolSeries, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.New("symbol is required")
	}
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}

	// Polygon knows US tickers without an exchange qualifier
	code := common.ParseTicker(symbol).Code
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s",
		url.PathEscape(code),
		dateRange.From.Format(models.DateLayout),
		dateRange.To.Format(models.DateLayout))

	params := url.Values{}
	params.Set("adjusted", "true")
	params.Set("sort", "asc")
	params.Set("limit", fmt.Sprintf("%d", maxResults))

	var result AggregatesResponse
	if err := c.get(ctx, symbol, path, params, &result); err != nil {
		return nil, err
	}

	if result.rejected() {
		return nil, &models.GatewayError{
			Kind:     models.GatewayProviderRejected,
			Provider: providerName,
			Symbol:   symbol,
			// Polygon reports some key and plan errors with a 200 status
			StatusCode: http.StatusOK,
			Body:       result.errorText(),
		}
	}

	series := &models.SymbolSeries{Symbol: symbol, Bars: make([]models.PriceBar, 0, len(result.Results))}
	for i, agg := range result.Results {
		bar, err := agg.toPriceBar(i)
		if err != nil {
			return nil, &models.GatewayError{Kind: models.GatewayDecode, Provider: providerName, Symbol: symbol, Err: err}
		}
		if !dateRange.Contains(bar.Time()) {
			continue
		}
		series.Bars = append(series.Bars, bar)
	}

	sort.SliceStable(series.Bars, func(i, j int) bool {
		return series.Bars[i].Timestamp < series.Bars[j].Timestamp
	})

	if c.logger != nil {
		c.logger.Debug().
			Str("symbol", symbol).
			Int("results", len(result.Results)).
			Int("bars", len(series.Bars)).
			Str("range", dateRange.String()).
			Msg("Polygon aggregates fetched")
	}

	return series, nil
}

// get performs a GET request to the API and decodes the JSON body into result.
func (c *Client) get(ctx context.Context, symbol, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return &models.GatewayError{Kind: models.GatewayTransport, Provider: providerName, Symbol: symbol, Err: err}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &models.GatewayError{Kind: models.GatewayTransport, Provider: providerName, Symbol: symbol,
			Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	// Never log the query string, it carries the API key
	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("Polygon API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.GatewayError{Kind: models.GatewayTransport, Provider: providerName, Symbol: symbol,
			Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.GatewayError{Kind: models.GatewayTransport, Provider: providerName, Symbol: symbol,
			Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &models.GatewayError{
			Kind:       models.GatewayProviderRejected,
			Provider:   providerName,
			Symbol:     symbol,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(body)), maxErrorBody),
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &models.GatewayError{Kind: models.GatewayDecode, Provider: providerName, Symbol: symbol,
			Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
