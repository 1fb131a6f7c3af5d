package common

import (
	"reflect"
	"testing"
)

func TestParseTicker(t *testing.T) {
	tests := []struct {
		input        string
		wantExchange string
		wantCode     string
		wantString   string
		wantEODHD    string
	}{
		// Exchange-qualified format with colon separator
		{"NYSE:JPM", "NYSE", "JPM", "NYSE:JPM", "JPM.US"},
		{"NASDAQ:AAPL", "NASDAQ", "AAPL", "NASDAQ:AAPL", "AAPL.US"},
		{"ASX:BHP", "ASX", "BHP", "ASX:BHP", "BHP.AU"},
		{"LSE:VOD", "LSE", "VOD", "LSE:VOD", "VOD.LSE"},

		// Exchange-qualified format with dot separator
		{"NYSE.JPM", "NYSE", "JPM", "NYSE:JPM", "JPM.US"},
		{"ASX.BHP", "ASX", "BHP", "ASX:BHP", "BHP.AU"},

		// Plain codes pick up the default exchange
		{"JPM", "NYSE", "JPM", "NYSE:JPM", "JPM.US"},
		{"aapl", "NYSE", "AAPL", "NYSE:AAPL", "AAPL.US"},

		// Class shares keep the dot and encode as a dash for EODHD
		{"BRK.B", "NYSE", "BRK.B", "NYSE:BRK.B", "BRK-B.US"},
		{"brk.b", "NYSE", "BRK.B", "NYSE:BRK.B", "BRK-B.US"},

		// Lowercase exchange prefixes normalize
		{"nyse:jpm", "NYSE", "JPM", "NYSE:JPM", "JPM.US"},

		// Whitespace trims
		{"  MSFT  ", "NYSE", "MSFT", "NYSE:MSFT", "MSFT.US"},
	}

	for _, tt := range tests {
		parsed := ParseTicker(tt.input)
		if parsed.Exchange != tt.wantExchange {
			t.Errorf("ParseTicker(%q).Exchange = %q, want %q", tt.input, parsed.Exchange, tt.wantExchange)
		}
		if parsed.Code != tt.wantCode {
			t.Errorf("ParseTicker(%q).Code = %q, want %q", tt.input, parsed.Code, tt.wantCode)
		}
		if got := parsed.String(); got != tt.wantString {
			t.Errorf("ParseTicker(%q).String() = %q, want %q", tt.input, got, tt.wantString)
		}
		if got := parsed.EODHDSymbol(); got != tt.wantEODHD {
			t.Errorf("ParseTicker(%q).EODHDSymbol() = %q, want %q", tt.input, got, tt.wantEODHD)
		}
	}
}

func TestParseTicker_Empty(t *testing.T) {
	parsed := ParseTicker("   ")
	if parsed.Code != "" || parsed.Exchange != "" {
		t.Errorf("ParseTicker(blank) = %+v, want zero value", parsed)
	}
	if got := parsed.EODHDSymbol(); got != "" {
		t.Errorf("EODHDSymbol() on zero ticker = %q, want empty", got)
	}
}

func TestParseTicker_UnknownExchangeSuffix(t *testing.T) {
	parsed := ParseTicker("FRA:SAP")
	if got := parsed.EODHDSymbol(); got != "SAP.US" {
		t.Errorf("EODHDSymbol() = %q, want fallback suffix SAP.US", got)
	}
}

func TestNormalizeTickers(t *testing.T) {
	input := []string{" aapl ", "MSFT", "", "  ", "brk.b"}
	want := []string{"AAPL", "MSFT", "BRK.B"}

	if got := NormalizeTickers(input); !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeTickers(%v) = %v, want %v", input, got, want)
	}
}
