// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "NYSE:JPM", "NASDAQ:AAPL")
type Ticker struct {
	// Exchange is the exchange code (e.g., "NYSE", "NASDAQ", "ASX")
	Exchange string
	// Code is the stock/security code (e.g., "JPM", "AAPL", "BRK.B")
	Code string
	// Raw is the original ticker string
	Raw string
}

// ExchangeToSuffix maps exchange codes to EODHD API suffixes.
var ExchangeToSuffix = map[string]string{
	"NYSE":   ".US",
	"NASDAQ": ".US",
	"ASX":    ".AU",
	"LSE":    ".LSE",
	"TSX":    ".TO",
	"INDX":   ".INDX", // For benchmark indices like GSPC (S&P 500)
}

// DefaultExchange is the exchange assumed when a ticker has no prefix.
var DefaultExchange = "NYSE"

// ParseTicker parses an exchange-qualified ticker string.
// Supports formats:
//   - "NYSE:JPM"  -> Exchange="NYSE", Code="JPM"
//   - "JPM"       -> Exchange=DefaultExchange, Code="JPM"
//   - "brk.b"     -> Exchange=DefaultExchange, Code="BRK.B" (class shares keep the dot)
//
// Note: EODHD uses CODE.SUFFIX (e.g., "JPM.US"). Use EODHDSymbol() to convert.
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	if idx := strings.Index(ticker, ":"); idx > 0 {
		return Ticker{
			Exchange: strings.ToUpper(ticker[:idx]),
			Code:     strings.ToUpper(ticker[idx+1:]),
			Raw:      ticker,
		}
	}

	// Dot separator only counts as an exchange prefix when the prefix is a
	// known exchange; "BRK.B" style class shares parse as plain codes.
	if idx := strings.Index(ticker, "."); idx > 0 {
		possibleExchange := strings.ToUpper(ticker[:idx])
		if _, ok := ExchangeToSuffix[possibleExchange]; ok {
			return Ticker{
				Exchange: possibleExchange,
				Code:     strings.ToUpper(ticker[idx+1:]),
				Raw:      ticker,
			}
		}
	}

	return Ticker{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified ticker string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// EODHDSymbol returns the EODHD API symbol format.
// Example: "NYSE:JPM" -> "JPM.US"
func (t Ticker) EODHDSymbol() string {
	if t.Code == "" {
		return ""
	}
	suffix, ok := ExchangeToSuffix[t.Exchange]
	if !ok {
		suffix = ".US"
	}
	// EODHD encodes share classes with a dash: BRK.B -> BRK-B.US
	code := strings.ReplaceAll(t.Code, ".", "-")
	return code + suffix
}

// NormalizeTicker uppercases and trims a plain ticker code.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// NormalizeTickers normalizes a list, dropping empties while preserving order.
func NormalizeTickers(tickers []string) []string {
	result := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if n := NormalizeTicker(t); n != "" {
			result = append(result, n)
		}
	}
	return result
}
