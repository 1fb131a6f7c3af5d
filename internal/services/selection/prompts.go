package selection

import (
	"fmt"
	"strings"

	"github.com/ternarybob/vantage/internal/common"
)

// selectionContext renders the challenge and policy constraints shared by
// every prompt in the protocol.
func selectionContext(challenge string, policy *common.PolicyProfile) string {
	objectives := strings.Join(policy.Objectives, ", ")
	if objectives == "" {
		objectives = "N/A"
	}
	allowed := strings.Join(policy.AllowedSectors, ", ")
	if allowed == "" {
		allowed = "All"
	}
	prohibited := strings.Join(policy.ProhibitedSectors, ", ")
	if prohibited == "" {
		prohibited = "None"
	}

	return fmt.Sprintf(`INVESTMENT CHALLENGE:
%s

CLIENT PROFILE:
- Risk Tolerance: %s
- Time Horizon: %d years
- Investment Objectives: %s
- Target Return: %.1f%%
- Max Portfolio Volatility: %.1f%%

CONSTRAINTS:
- Allowed Sectors: %s
- Prohibited Sectors: %s
- Min Position Size: %.0f%%
- Max Position Size: %.0f%%
- Max Sector Concentration: %.0f%%`,
		challenge,
		policy.RiskTolerance,
		policy.TimeHorizonYears,
		objectives,
		policy.TargetReturnPct,
		policy.MaxVolatilityPct,
		allowed,
		prohibited,
		policy.MinPositionPct,
		policy.MaxPositionPct,
		policy.MaxSectorPct,
	)
}

// claudeSelectionPrompt asks the first selector for exactly n candidates,
// steering it toward broad-market discovery rather than defaulting to
// mega-caps.
func claudeSelectionPrompt(context string, n int) string {
	return fmt.Sprintf(`You are an expert portfolio manager specializing in discovering high-potential investment opportunities across ALL market capitalizations.

%s

TASK: Select exactly %d stock tickers with the HIGHEST growth potential that match this challenge and client profile.

CRITICAL REQUIREMENTS:
- Search BEYOND the S&P 500 - discover hidden gems in small-cap, mid-cap, and emerging companies
- Market cap is NOT a constraint - the best opportunity might be a $500M company or a $500B company
- Actively seek niche players, disruptors, and category leaders in high-growth sectors
- Don't default to well-known mega-caps unless they truly are the best opportunities
- Prioritize companies with strong revenue growth, expanding market share, and competitive moats
- Match client risk tolerance and investment objectives
- Ensure some diversification across sectors

OUTPUT FORMAT:
Return a JSON array of exactly %d ticker symbols:
["AAPL", "MSFT", "GOOGL", ...]

Only return the JSON array, nothing else.`, context, n, n)
}

// geminiSelectionPrompt asks the second selector for exactly n candidates
// with a stronger tilt toward overlooked names, so the two initial lists
// diverge.
func geminiSelectionPrompt(context string, n int) string {
	return fmt.Sprintf(`You are an expert portfolio manager with real-time market intelligence, specializing in discovering high-potential stocks that most investors overlook.

%s

TASK: Select exactly %d stock tickers with EXCEPTIONAL growth potential that match this challenge and client profile.

CRITICAL MISSION - DISCOVER HIDDEN OPPORTUNITIES:
- Market cap is IRRELEVANT - a $300M company can outperform a $300B company
- Actively hunt for small-cap disruptors, mid-cap innovators, and emerging category leaders
- Look for companies with explosive revenue growth and strong product-market fit
- AVOID defaulting to the obvious mega-caps unless they are truly the best opportunities
- Match client risk tolerance while maximizing upside potential
- Diversify across sectors and growth stages

OUTPUT FORMAT:
Return a JSON array of exactly %d ticker symbols:
["AAPL", "MSFT", "GOOGL", ...]

Only return the JSON array, nothing else.`, context, n, n)
}

// rationalePrompt asks for a 4-sentence justification for one candidate.
func rationalePrompt(context, ticker string) string {
	return fmt.Sprintf(`You are analyzing why %s is a strong investment candidate for this specific challenge.

%s

TASK: Write exactly 4 sentences explaining why %s is:
1. Strong (fundamentals, competitive position)
2. Beneficial (fits portfolio objectives)
3. Relevant (aligns with challenge/client requirements)
4. Strategic (adds value to the portfolio)

Each sentence should be clear, specific, and actionable. Focus on facts and strategic fit.

OUTPUT: Exactly 4 sentences, no introduction, no numbering.`, ticker, context, ticker)
}

// candidateBlock renders tickers with their rationales for narrowing and
// consolidation prompts.
func candidateBlock(tickers []string, rationales map[string]string) string {
	blocks := make([]string, 0, len(tickers))
	for _, t := range tickers {
		blocks = append(blocks, fmt.Sprintf("**%s**\n%s", t, rationales[t]))
	}
	return strings.Join(blocks, "\n\n")
}

// narrowingPrompt asks for the best target-sized subset of the full
// candidate pool. Each round receives the same prompt; rounds are
// independent by design.
func narrowingPrompt(context string, candidates []string, rationales map[string]string, target int) string {
	return fmt.Sprintf(`You are an expert portfolio manager making final stock selections.

%s

AVAILABLE CANDIDATES (%d stocks):
%s

TASK: Select exactly %d tickers that form the optimal portfolio for this challenge.

SELECTION CRITERIA:
- Best overall fit for challenge objectives
- Strongest alignment with client profile
- Optimal diversification
- Best risk-adjusted return potential
- Strategic portfolio composition

OUTPUT FORMAT:
Return a JSON array of exactly %d ticker symbols:
["AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"]

Only return the JSON array, nothing else.`, context, len(candidates), candidateBlock(candidates, rationales), target, target)
}

// consolidationPrompt narrows the union of round picks down to exactly
// target when the rounds disagreed.
func consolidationPrompt(context string, finalists []string, rationales map[string]string, target int) string {
	return fmt.Sprintf(`You are an expert portfolio manager making the final selection.

%s

FINALISTS (%d stocks):
%s

These %d stocks emerged from multiple selection rounds. You must now select exactly %d for the final portfolio.

TASK: Select exactly %d tickers that form the absolute best portfolio.

SELECTION CRITERIA:
- Maximum strategic fit
- Optimal diversification
- Best risk-adjusted returns
- Strongest rationales
- Most complementary positions

OUTPUT FORMAT:
Return a JSON array of exactly %d ticker symbols:
["AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"]

Only return the JSON array, nothing else.`, context, len(finalists), candidateBlock(finalists, rationales),
		len(finalists), target, target, target)
}
