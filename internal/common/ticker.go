package common

import (
	"strings"
)

// Ticker represents a parsed, optionally exchange-qualified symbol.
// Format: EXCHANGE:CODE (e.g., "NASDAQ:AAPL") or a bare CODE (e.g., "AAPL").
type Ticker struct {
	// Exchange is the exchange code (e.g., "NYSE", "NASDAQ"); empty for bare codes
	Exchange string
	// Code is the security code as the provider knows it (e.g., "AAPL", "BRK.B")
	Code string
}

// ExchangeToSuffix maps exchange codes to EODHD API suffixes.
var ExchangeToSuffix = map[string]string{
	"NYSE":   "US",
	"NASDAQ": "US",
	"AMEX":   "US",
	"ASX":    "AU",
	"LSE":    "LSE",
	"TSX":    "TO",
	"XETRA":  "XETRA",
}

// ParseTicker parses a symbol string typed by a user or read from a portfolio file.
//   - "NASDAQ:aapl" -> Exchange="NASDAQ", Code="AAPL"
//   - " msft "      -> Exchange="",       Code="MSFT"
//   - "BRK.B"       -> Exchange="",       Code="BRK.B" (dots belong to the code)
func ParseTicker(ticker string) Ticker {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return Ticker{}
	}

	if idx := strings.Index(ticker, ":"); idx > 0 && idx < len(ticker)-1 {
		return Ticker{Exchange: ticker[:idx], Code: ticker[idx+1:]}
	}
	return Ticker{Code: strings.TrimPrefix(ticker, ":")}
}

// String returns the canonical symbol used in reports and file names.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// EODHDSymbol returns the EODHD API symbol format CODE.SUFFIX.
// Bare codes use defaultSuffix; codes that already carry a known suffix are kept.
func (t Ticker) EODHDSymbol(defaultSuffix string) string {
	if t.Code == "" {
		return ""
	}
	if suffix, ok := ExchangeToSuffix[t.Exchange]; ok {
		return t.Code + "." + suffix
	}
	if idx := strings.LastIndex(t.Code, "."); idx > 0 {
		if isEODHDSuffix(t.Code[idx+1:]) {
			return t.Code
		}
	}
	if defaultSuffix == "" {
		defaultSuffix = "US"
	}
	return t.Code + "." + strings.ToUpper(defaultSuffix)
}

func isEODHDSuffix(s string) bool {
	for _, suffix := range ExchangeToSuffix {
		if s == suffix {
			return true
		}
	}
	return false
}

// NormalizeSymbols parses each symbol, drops blanks and duplicates, and keeps first-seen order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	result := make([]string, 0, len(symbols))
	for _, s := range symbols {
		canonical := ParseTicker(s).String()
		if canonical == "" || seen[canonical] {
			continue
		}
		seen[canonical] = true
		result = append(result, canonical)
	}
	return result
}
