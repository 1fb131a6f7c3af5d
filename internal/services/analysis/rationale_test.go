package analysis

import (
	"strings"
	"testing"

	"github.com/ternarybob/vantage/internal/models"
)

func TestHumanizeMarketCap(t *testing.T) {
	tests := []struct {
		marketCap float64
		want      string
	}{
		{2.5e12, "$2.50T"},
		{1e12, "$1.00T"},
		{5e9, "$5.00B"},
		{999.5e9, "$999.50B"},
		{7.5e8, "$750.00M"},
		{1e6, "$1.00M"},
	}

	for _, tt := range tests {
		if got := humanizeMarketCap(tt.marketCap); got != tt.want {
			t.Errorf("humanizeMarketCap(%g) = %q, want %q", tt.marketCap, got, tt.want)
		}
	}
}

func TestBuildComprehensiveRationale(t *testing.T) {
	fundamentals := models.Fundamentals{
		Name:          "Apple Inc.",
		Sector:        "Technology",
		Price:         180,
		MarketCap:     2.8e12,
		PERatio:       28.5,
		Beta:          1.2,
		DividendYield: 0.0055,
	}
	results := map[string]models.AgentResult{
		models.AgentValue:  {Score: 72.5, Rationale: "Fairly valued."},
		models.AgentGrowth: {Score: 85, Rationale: "Strong momentum."},
		models.AgentRisk:   {Score: 60},
	}

	report := buildComprehensiveRationale("AAPL", results, 74.7, fundamentals)

	for _, want := range []string{
		"COMPREHENSIVE INVESTMENT ANALYSIS: AAPL",
		"Company: Apple Inc.",
		"Sector: Technology",
		"Current Price: $180.00",
		"Market Cap: $2.80T",
		"P/E Ratio: 28.50",
		"Beta: 1.20",
		"Dividend Yield: 0.55%",
		"VALUE ANALYSIS:",
		"Score: 72.50/100",
		"Fairly valued.",
		"GROWTH & MOMENTUM ANALYSIS:",
		"RISK ASSESSMENT:",
		"Analysis not available",
		"FINAL RECOMMENDATION:",
		"Final Score: 74.70/100",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Absent agents get no section.
	if strings.Contains(report, "MACROECONOMIC ANALYSIS") {
		t.Error("report contains section for missing macro agent")
	}

	// Sections appear in canonical order.
	valueIdx := strings.Index(report, "VALUE ANALYSIS")
	growthIdx := strings.Index(report, "GROWTH & MOMENTUM ANALYSIS")
	riskIdx := strings.Index(report, "RISK ASSESSMENT")
	if !(valueIdx < growthIdx && growthIdx < riskIdx) {
		t.Error("agent sections out of order")
	}
}

func TestBuildComprehensiveRationale_SparseFundamentals(t *testing.T) {
	report := buildComprehensiveRationale("ZZZZ", nil, 50, models.Fundamentals{})

	if !strings.Contains(report, "Company: ZZZZ") {
		t.Error("missing ticker fallback for company name")
	}
	if !strings.Contains(report, "Sector: Unknown") {
		t.Error("missing sector fallback")
	}
	if strings.Contains(report, "Current Price") {
		t.Error("zero price should be omitted")
	}
	if strings.Contains(report, "Market Cap") {
		t.Error("zero market cap should be omitted")
	}
}
