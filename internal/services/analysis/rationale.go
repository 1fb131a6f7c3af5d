package analysis

import (
	"fmt"
	"strings"

	"github.com/ternarybob/vantage/internal/models"
)

var agentSectionLabels = map[string]string{
	models.AgentValue:     "VALUE ANALYSIS",
	models.AgentGrowth:    "GROWTH & MOMENTUM ANALYSIS",
	models.AgentMacro:     "MACROECONOMIC ANALYSIS",
	models.AgentRisk:      "RISK ASSESSMENT",
	models.AgentSentiment: "MARKET SENTIMENT ANALYSIS",
}

// buildComprehensiveRationale renders the full sectioned analysis report:
// company overview, key metrics, one section per agent in canonical order,
// and the final recommendation.
func buildComprehensiveRationale(ticker string, results map[string]models.AgentResult, finalScore float64, fundamentals models.Fundamentals) string {
	var b strings.Builder
	heavy := strings.Repeat("=", 80)
	light := strings.Repeat("-", 80)

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("%s", heavy)
	line("COMPREHENSIVE INVESTMENT ANALYSIS: %s", ticker)
	line("%s", heavy)

	name := fundamentals.Name
	if name == "" {
		name = ticker
	}
	sector := fundamentals.Sector
	if sector == "" {
		sector = "Unknown"
	}
	line("\nCOMPANY OVERVIEW:")
	line("Company: %s", name)
	line("Sector: %s", sector)

	line("\nKEY FINANCIAL METRICS:")
	if fundamentals.Price > 0 {
		line("Current Price: $%.2f", fundamentals.Price)
	}
	if fundamentals.MarketCap > 0 {
		line("Market Cap: %s", humanizeMarketCap(fundamentals.MarketCap))
	}
	if fundamentals.PERatio > 0 {
		line("P/E Ratio: %.2f", fundamentals.PERatio)
	}
	if fundamentals.Beta != 0 {
		line("Beta: %.2f", fundamentals.Beta)
	}
	if fundamentals.DividendYield > 0 {
		line("Dividend Yield: %.2f%%", fundamentals.DividendYield*100)
	}

	line("\nMULTI-AGENT ANALYSIS:")
	line("%s", heavy)
	for _, agentName := range models.AgentNames() {
		result, ok := results[agentName]
		if !ok {
			continue
		}
		label := agentSectionLabels[agentName]
		if label == "" {
			label = strings.ToUpper(agentName)
		}
		rationale := result.Rationale
		if rationale == "" {
			rationale = "Analysis not available"
		}
		line("\n%s:", label)
		line("Score: %.2f/100", result.Score)
		line("%s", rationale)
		line("%s", light)
	}

	line("\nFINAL RECOMMENDATION:")
	line("Final Score: %.2f/100", finalScore)
	b.WriteString(heavy)

	return b.String()
}

// humanizeMarketCap formats a market cap as $X.XXT, $X.XXB, or $X.XXM.
func humanizeMarketCap(marketCap float64) string {
	switch {
	case marketCap >= 1e12:
		return fmt.Sprintf("$%.2fT", marketCap/1e12)
	case marketCap >= 1e9:
		return fmt.Sprintf("$%.2fB", marketCap/1e9)
	default:
		return fmt.Sprintf("$%.2fM", marketCap/1e6)
	}
}
