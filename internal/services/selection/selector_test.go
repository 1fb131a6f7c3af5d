package selection

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
	"github.com/ternarybob/vantage/internal/services/llm"
)

// scriptedProvider answers prompts by stage, identified by prompt markers.
type scriptedProvider struct {
	name       string
	initial    string
	narrowing  []string // consumed per narrowing round
	consolidat string
	rationale  string
	err        error

	narrowCalls      int
	consolidateCalls int
}

func (p *scriptedProvider) ProviderName() string { return p.name }

func (p *scriptedProvider) GenerateText(ctx context.Context, req *interfaces.TextRequest) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	prompt := req.Prompt
	switch {
	case strings.Contains(prompt, "FINALISTS"):
		p.consolidateCalls++
		return p.consolidat, nil
	case strings.Contains(prompt, "AVAILABLE CANDIDATES"):
		idx := p.narrowCalls
		p.narrowCalls++
		if idx < len(p.narrowing) {
			return p.narrowing[idx], nil
		}
		return p.narrowing[len(p.narrowing)-1], nil
	case strings.Contains(prompt, "Write exactly 4 sentences"):
		return p.rationale, nil
	default:
		return p.initial, nil
	}
}

type memorySessions struct {
	saved []*models.SelectionSession
}

func (m *memorySessions) SaveSession(ctx context.Context, s *models.SelectionSession) error {
	m.saved = append(m.saved, s)
	return nil
}
func (m *memorySessions) GetSession(ctx context.Context, id string) (*models.SelectionSession, error) {
	return nil, interfaces.ErrNotFound
}
func (m *memorySessions) ListSessions(ctx context.Context, limit int) ([]*models.SelectionSession, error) {
	return nil, nil
}
func (m *memorySessions) DeleteSession(ctx context.Context, id string) error { return nil }

func testConfig() *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Selection.InitialCount = 6
	cfg.Selection.TargetCount = 3
	cfg.LLM.MinCallDelay = "0s"
	cfg.LLM.BaseBackoff = "1ms"
	return cfg
}

func newTestSelector(t *testing.T, claude, gemini interfaces.LLMProvider, sessions interfaces.SessionStorage) *Selector {
	t.Helper()
	cfg := testConfig()
	providers := &llm.Providers{
		Claude:   claude,
		Gemini:   gemini,
		Throttle: llm.NewThrottle(&cfg.LLM, common.GetLogger()),
	}
	return NewSelector(providers, sessions, nil, cfg, common.GetLogger())
}

func TestSelectTickers_AgreementSkipsConsolidationCall(t *testing.T) {
	claude := &scriptedProvider{
		name:      "claude",
		initial:   `["AAA", "BBB", "CCC", "DDD", "EEE", "FFF"]`,
		narrowing: []string{`["AAA", "BBB", "CCC"]`},
		rationale: "Strong. Beneficial. Relevant. Strategic.",
	}
	gemini := &scriptedProvider{
		name:    "gemini",
		initial: `["GGG", "HHH", "III", "AAA", "JJJ", "KKK"]`,
	}
	sessions := &memorySessions{}

	sel := newTestSelector(t, claude, gemini, sessions)
	result, err := sel.SelectTickers(context.Background(), "growth portfolio")
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, result.Tickers)
	assert.Equal(t, 0, claude.consolidateCalls, "identical rounds need no consolidation call")
	assert.Equal(t, 3, claude.narrowCalls)

	// Every final ticker carries a rationale.
	for _, ticker := range result.Tickers {
		assert.NotEmpty(t, result.Rationales[ticker])
	}

	// The session was persisted once with the full stage sequence.
	require.Len(t, sessions.saved, 1)
	session := sessions.saved[0]
	kinds := make([]models.StageKind, 0, len(session.Stages))
	for _, st := range session.Stages {
		kinds = append(kinds, st.Kind)
	}
	assert.Equal(t, []models.StageKind{
		models.StageInitialSelection,
		models.StageInitialSelection,
		models.StageAggregation,
		models.StageRationale,
		models.StageNarrowingRound,
		models.StageNarrowingRound,
		models.StageNarrowingRound,
		models.StageFinalConsolidation,
	}, kinds)
	assert.Equal(t, result.Tickers, session.FinalSelection())
	assert.False(t, session.CompletedAt.IsZero())
}

func TestSelectTickers_DisagreementTriggersConsolidationCall(t *testing.T) {
	claude := &scriptedProvider{
		name:    "claude",
		initial: `["AAA", "BBB", "CCC", "DDD", "EEE", "FFF"]`,
		narrowing: []string{
			`["AAA", "BBB", "CCC"]`,
			`["DDD", "EEE", "FFF"]`,
			`["AAA", "DDD", "GGG"]`,
		},
		consolidat: `["BBB", "EEE", "GGG"]`,
		rationale:  "Strong. Beneficial. Relevant. Strategic.",
	}
	gemini := &scriptedProvider{
		name:    "gemini",
		initial: `["GGG", "HHH", "III", "JJJ", "KKK", "LLL"]`,
	}

	sel := newTestSelector(t, claude, gemini, &memorySessions{})
	result, err := sel.SelectTickers(context.Background(), "growth portfolio")
	require.NoError(t, err)

	assert.Equal(t, []string{"BBB", "EEE", "GGG"}, result.Tickers)
	assert.Equal(t, 1, claude.consolidateCalls)
}

func TestSelectTickers_ShortfallPadsFromCandidates(t *testing.T) {
	// Rounds converge on fewer than target tickers; padding fills from
	// the candidate pool in first-seen order.
	claude := &scriptedProvider{
		name:      "claude",
		initial:   `["AAA", "BBB", "CCC", "DDD", "EEE", "FFF"]`,
		narrowing: []string{`["AAA", "BBB"]`},
		rationale: "Strong. Beneficial. Relevant. Strategic.",
	}
	gemini := &scriptedProvider{
		name:    "gemini",
		initial: `["GGG", "HHH", "III", "JJJ", "KKK", "LLL"]`,
	}

	sel := newTestSelector(t, claude, gemini, &memorySessions{})
	result, err := sel.SelectTickers(context.Background(), "growth portfolio")
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, result.Tickers)
	assert.Equal(t, 0, claude.consolidateCalls)
}

func TestSelectTickers_FullOutageFallsBackEverywhere(t *testing.T) {
	boom := errors.New("provider down")
	claude := &scriptedProvider{name: "claude", err: boom}
	gemini := &scriptedProvider{name: "gemini", err: boom}
	sessions := &memorySessions{}

	sel := newTestSelector(t, claude, gemini, sessions)
	result, err := sel.SelectTickers(context.Background(), "growth portfolio")
	require.NoError(t, err)

	// Initial selectors fall back to their fixed lists; narrowing falls
	// back to the leading candidates; the final set is exactly target.
	require.Len(t, result.Tickers, 3)
	assert.Equal(t, claudeFallbackTickers[:3], result.Tickers)

	for _, ticker := range result.Tickers {
		assert.Equal(t, FallbackRationale(ticker), result.Rationales[ticker])
	}

	require.Len(t, sessions.saved, 1)
	session := sessions.saved[0]
	for _, st := range session.Stages {
		if st.Kind == models.StageInitialSelection || st.Kind == models.StageNarrowingRound {
			assert.True(t, st.FallbackUsed, "stage %s/%d should record fallback", st.Kind, st.Round)
		}
	}
}

func TestSelectTickers_MissingProviderUsesFallbackList(t *testing.T) {
	// Only Gemini configured: Claude's slot falls back to its fixed list
	// while Gemini's selection still comes from the model.
	gemini := &scriptedProvider{
		name:      "gemini",
		initial:   `["GGG", "HHH", "III", "JJJ", "KKK", "LLL"]`,
		narrowing: []string{`["GGG", "HHH", "III"]`},
		rationale: "Strong. Beneficial. Relevant. Strategic.",
	}
	sessions := &memorySessions{}

	sel := newTestSelector(t, nil, gemini, sessions)
	result, err := sel.SelectTickers(context.Background(), "growth portfolio")
	require.NoError(t, err)

	require.Len(t, sessions.saved, 1)
	first := sessions.saved[0].Stages[0]
	assert.Equal(t, "claude", first.Selector)
	assert.True(t, first.FallbackUsed)
	assert.Equal(t, claudeFallbackTickers[:6], first.Tickers)

	assert.Equal(t, []string{"GGG", "HHH", "III"}, result.Tickers)
}

func TestSelectTickers_OversizedResponsesTruncated(t *testing.T) {
	claude := &scriptedProvider{
		name:      "claude",
		initial:   `["AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "ZZZ", "YYY"]`,
		narrowing: []string{`["AAA", "BBB", "CCC", "DDD", "EEE"]`},
		rationale: "Strong. Beneficial. Relevant. Strategic.",
	}
	gemini := &scriptedProvider{
		name:    "gemini",
		initial: `["GGG", "HHH", "III", "JJJ", "KKK", "LLL"]`,
	}
	sessions := &memorySessions{}

	sel := newTestSelector(t, claude, gemini, sessions)
	result, err := sel.SelectTickers(context.Background(), "growth portfolio")
	require.NoError(t, err)

	// Initial list is cut to the configured count, round picks to target.
	initial := sessions.saved[0].Stages[0]
	assert.Len(t, initial.Tickers, 6)
	assert.NotContains(t, initial.Tickers, "ZZZ")

	require.Len(t, result.Tickers, 3)
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, result.Tickers)
}
