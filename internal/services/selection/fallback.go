package selection

import "fmt"

// Fixed fallback lists used when an initial selector call fails. The two
// selectors fall back to disjoint lists so the aggregated candidate pool
// keeps some breadth even in a full outage.
var (
	claudeFallbackTickers = []string{
		"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "BRK.B",
		"JPM", "V", "JNJ", "WMT", "PG", "MA", "HD", "DIS", "BAC", "CSCO",
		"ADBE", "CRM",
	}

	geminiFallbackTickers = []string{
		"COST", "NFLX", "AMD", "ORCL", "INTC", "QCOM", "AMAT", "TXN",
		"HON", "UNP", "UPS", "RTX", "LMT", "CAT", "DE", "MMM", "GE", "BA",
		"DHR", "ABT",
	}
)

// fallbackList returns the first n tickers of the given fallback list.
func fallbackList(list []string, n int) []string {
	if n > len(list) {
		n = len(list)
	}
	return append([]string(nil), list[:n]...)
}

// FallbackRationale is the templated justification substituted when a
// per-ticker rationale call fails. The ticker is never dropped.
func FallbackRationale(ticker string) string {
	return fmt.Sprintf("%s is a well-established company with strong market position. "+
		"It aligns with the investment objectives and risk profile. "+
		"The stock offers growth potential while maintaining reasonable valuation metrics. "+
		"Adding this position contributes to portfolio diversification and strategic objectives.", ticker)
}
