package polygon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/stockreport/internal/models"
	"golang.org/x/time/rate"
)

func testRange(t *testing.T) models.DateRange {
	t.Helper()
	r, err := models.ParseDateRange("2024-01-02", "2024-01-03")
	require.NoError(t, err)
	return r
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	opts = append([]ClientOption{WithBaseURL(server.URL), WithRateLimit(60000)}, opts...)
	return NewClient("test-key", opts...)
}

func requireGatewayError(t *testing.T, err error, kind models.GatewayErrorKind) *models.GatewayError {
	t.Helper()
	var gwErr *models.GatewayError
	require.True(t, errors.As(err, &gwErr), "expected *models.GatewayError, got %T: %v", err, err)
	assert.Equal(t, kind, gwErr.Kind)
	assert.Equal(t, "polygon", gwErr.Provider)
	return gwErr
}

func TestFetch_Success(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		// out of order, plus one bar before the range
		_, _ = w.Write([]byte(`{
			"ticker": "AAPL", "adjusted": true, "status": "OK", "resultsCount": 3,
			"results": [
				{"o": 105, "h": 108, "l": 100, "c": 102, "v": 2000, "t": 1704258000000},
				{"o": 100, "h": 110, "l": 95, "c": 105, "v": 1000, "t": 1704171600000},
				{"o": 90, "h": 91, "l": 89, "c": 90, "v": 10, "t": 1703826000000}
			]
		}`))
	})

	series, err := client.Fetch(context.Background(), "aapl", testRange(t))
	require.NoError(t, err)

	assert.Equal(t, "/v2/aggs/ticker/AAPL/range/1/day/2024-01-02/2024-01-03", gotPath)
	assert.Equal(t, "test-key", gotQuery["apiKey"][0])
	assert.Equal(t, "true", gotQuery["adjusted"][0])
	assert.Equal(t, "asc", gotQuery["sort"][0])

	assert.Equal(t, "AAPL", series.Symbol)
	require.Len(t, series.Bars, 2)
	assert.Equal(t, int64(1704171600000), series.Bars[0].Timestamp)
	assert.True(t, series.Bars[0].Open.Equal(decimal.NewFromInt(100)))
	assert.True(t, series.Bars[1].Close.Equal(decimal.NewFromInt(102)))
	assert.True(t, series.Bars[1].Volume.Equal(decimal.NewFromInt(2000)))
}

func TestFetch_NoResultsIsEmptySeries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ticker": "AAPL", "adjusted": true, "status": "OK", "resultsCount": 0}`))
	})

	series, err := client.Fetch(context.Background(), "AAPL", testRange(t))
	require.NoError(t, err)
	assert.Equal(t, 0, series.Len())
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    models.GatewayErrorKind
		checkFn func(t *testing.T, err *models.GatewayError)
	}{
		{
			name:   "non-2xx is rejected with body",
			status: http.StatusForbidden,
			body:   `{"status":"NOT_AUTHORIZED","message":"plan does not include this data"}`,
			kind:   models.GatewayProviderRejected,
			checkFn: func(t *testing.T, err *models.GatewayError) {
				assert.Equal(t, http.StatusForbidden, err.StatusCode)
				assert.Contains(t, err.Body, "plan does not include")
			},
		},
		{
			name:   "error status with 200",
			status: http.StatusOK,
			body:   `{"status":"ERROR","error":"Unknown API Key"}`,
			kind:   models.GatewayProviderRejected,
			checkFn: func(t *testing.T, err *models.GatewayError) {
				assert.Equal(t, "Unknown API Key", err.Body)
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"results": [`,
			kind:   models.GatewayDecode,
		},
		{
			name:   "result missing close",
			status: http.StatusOK,
			body:   `{"status":"OK","results":[{"o":1,"h":1,"l":1,"v":1,"t":1704171600000}]}`,
			kind:   models.GatewayDecode,
			checkFn: func(t *testing.T, err *models.GatewayError) {
				var missing *MissingFieldError
				require.True(t, errors.As(err, &missing))
				assert.Equal(t, "c", missing.Field)
			},
		},
		{
			name:   "result with null timestamp",
			status: http.StatusOK,
			body:   `{"status":"OK","results":[{"o":1,"h":1,"l":1,"c":1,"v":1,"t":null}]}`,
			kind:   models.GatewayDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Fetch(context.Background(), "BAD", testRange(t))
			require.Error(t, err)
			gwErr := requireGatewayError(t, err, tt.kind)
			assert.Equal(t, "BAD", gwErr.Symbol)
			if tt.checkFn != nil {
				tt.checkFn(t, gwErr)
			}
		})
	}
}

func TestFetch_TransportFailures(t *testing.T) {
	t.Run("server unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client := NewClient("k", WithBaseURL(server.URL))
		_, err := client.Fetch(context.Background(), "AAPL", testRange(t))
		requireGatewayError(t, err, models.GatewayTransport)
	})

	t.Run("timeout", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}, WithTimeout(20*time.Millisecond))

		start := time.Now()
		_, err := client.Fetch(context.Background(), "AAPL", testRange(t))
		requireGatewayError(t, err, models.GatewayTransport)
		assert.Less(t, time.Since(start), 200*time.Millisecond)
	})

	t.Run("cancelled context", func(t *testing.T) {
		called := false
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.Fetch(ctx, "AAPL", testRange(t))
		requireGatewayError(t, err, models.GatewayTransport)
		assert.False(t, called)
	})
}

func TestFetch_InvalidArguments(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := client.Fetch(context.Background(), "  ", testRange(t))
	assert.Error(t, err)

	backwards := models.DateRange{From: testRange(t).To, To: testRange(t).From}
	_, err = client.Fetch(context.Background(), "AAPL", backwards)
	assert.Error(t, err)

	assert.False(t, called, "no request may be sent for invalid arguments")
}

func TestNewClient_HTTPClientOptions(t *testing.T) {
	t.Run("timeout applies to the default client", func(t *testing.T) {
		client := NewClient("k", WithTimeout(5*time.Second))
		assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	})

	t.Run("custom client is not modified", func(t *testing.T) {
		shared := &http.Client{Timeout: time.Minute}
		client := NewClient("k", WithHTTPClient(shared), WithTimeout(5*time.Second))
		assert.Same(t, shared, client.httpClient)
		assert.Equal(t, time.Minute, shared.Timeout)
	})

	t.Run("nil client falls back to the default", func(t *testing.T) {
		client := NewClient("k", WithHTTPClient(nil))
		require.NotNil(t, client.httpClient)
		assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
	})
}

func TestNewClient_RateLimitIsPerMinute(t *testing.T) {
	client := NewClient("k", WithRateLimit(5))
	assert.Equal(t, rate.Every(12*time.Second), client.limiter.Limit())
	assert.Equal(t, 1, client.limiter.Burst())

	client = NewClient("k", WithRateLimit(0))
	assert.Equal(t, rate.Every(time.Minute/DefaultRateLimit), client.limiter.Limit())
}
