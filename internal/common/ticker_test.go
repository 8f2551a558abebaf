package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTicker(t *testing.T) {
	tests := []struct {
		input        string
		wantExchange string
		wantCode     string
		wantString   string
		wantEODHD    string
	}{
		{"AAPL", "", "AAPL", "AAPL", "AAPL.US"},
		{"  msft  ", "", "MSFT", "MSFT", "MSFT.US"},
		{"NASDAQ:aapl", "NASDAQ", "AAPL", "NASDAQ:AAPL", "AAPL.US"},
		{"asx:bhp", "ASX", "BHP", "ASX:BHP", "BHP.AU"},
		{"BRK.B", "", "BRK.B", "BRK.B", "BRK.B.US"},
		{"VOD.LSE", "", "VOD.LSE", "VOD.LSE", "VOD.LSE"},
		{"", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseTicker(tt.input)

			assert.Equal(t, tt.wantExchange, result.Exchange)
			assert.Equal(t, tt.wantCode, result.Code)
			assert.Equal(t, tt.wantString, result.String())
			assert.Equal(t, tt.wantEODHD, result.EODHDSymbol("US"))
		})
	}
}

func TestEODHDSymbol_DefaultSuffix(t *testing.T) {
	assert.Equal(t, "CBA.AU", ParseTicker("CBA").EODHDSymbol("au"))
	assert.Equal(t, "CBA.US", ParseTicker("CBA").EODHDSymbol(""))
	// exchange prefix wins over the default suffix
	assert.Equal(t, "AAPL.US", ParseTicker("NYSE:AAPL").EODHDSymbol("AU"))
}

func TestNormalizeSymbols(t *testing.T) {
	got := NormalizeSymbols([]string{" aapl", "MSFT", "", "AAPL", "  ", "nasdaq:msft", "msft"})
	assert.Equal(t, []string{"AAPL", "MSFT", "NASDAQ:MSFT"}, got)

	assert.Empty(t, NormalizeSymbols(nil))
}
