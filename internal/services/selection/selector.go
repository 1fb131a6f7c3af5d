// Package selection implements the multi-stage AI candidate selection
// protocol: dual initial selection, aggregation, per-ticker rationales,
// three independent narrowing rounds, and final consolidation, with the
// full session persisted as an audit record.
package selection

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
	"github.com/ternarybob/vantage/internal/services/llm"
)

// narrowingRounds is the fixed number of independent top-N rounds.
const narrowingRounds = 3

// Result is the outcome of one selection run.
type Result struct {
	// Tickers is the final selection, always exactly the target count.
	Tickers []string
	// Rationales maps each final ticker to its justification.
	Rationales map[string]string
	// Session is the full audit record, already persisted.
	Session *models.SelectionSession
}

// Selector runs the candidate selection protocol.
type Selector struct {
	providers *llm.Providers
	sessions  interfaces.SessionStorage
	policy    *common.PolicyProfile
	config    common.SelectionConfig
	primary   common.LLMProvider
	logger    arbor.ILogger
	now       func() time.Time
}

// NewSelector wires a selector from configuration. sessions may be nil in
// tests; the session is then returned but not persisted.
func NewSelector(providers *llm.Providers, sessions interfaces.SessionStorage, policy *common.PolicyProfile, cfg *common.Config, logger arbor.ILogger) *Selector {
	if policy == nil {
		policy = common.NewDefaultPolicyProfile()
	}
	return &Selector{
		providers: providers,
		sessions:  sessions,
		policy:    policy,
		config:    cfg.Selection,
		primary:   cfg.LLM.DefaultProvider,
		logger:    logger,
		now:       time.Now,
	}
}

// SelectTickers runs the full protocol for the challenge. Every stage
// degrades to a deterministic fallback on failure; the returned selection
// always has exactly the configured target count.
func (s *Selector) SelectTickers(ctx context.Context, challenge string) (*Result, error) {
	return s.SelectTickersWithCount(ctx, challenge, 0)
}

// SelectTickersWithCount is SelectTickers with a per-run override of the
// initial per-selector candidate count. initialCount below 1 keeps the
// configured default.
func (s *Selector) SelectTickersWithCount(ctx context.Context, challenge string, initialCount int) (*Result, error) {
	if challenge == "" {
		challenge = s.config.Challenge
	}
	if challenge == "" {
		challenge = common.DefaultChallenge
	}
	initial := initialCount
	if initial <= 0 {
		initial = s.config.InitialCount
	}
	if initial <= 0 {
		initial = 20
	}
	target := s.config.TargetCount
	if target <= 0 {
		target = 5
	}

	started := s.now()
	session := &models.SelectionSession{
		SessionID:     common.NewSessionID(started),
		ChallengeText: challenge,
		TargetCount:   target,
		Constraints:   s.policySummary(),
		StartedAt:     started,
	}

	s.logger.Info().
		Str("session_id", session.SessionID).
		Int("initial_count", initial).
		Int("target_count", target).
		Msg("Starting candidate selection")

	promptContext := selectionContext(challenge, s.policy)

	// Stage 1: dual initial selection, Claude then Gemini.
	claudePicks := s.initialSelection(ctx, session, "claude", s.providers.Claude,
		claudeSelectionPrompt(promptContext, initial), claudeFallbackTickers, initial)
	geminiPicks := s.initialSelection(ctx, session, "gemini", s.providers.Gemini,
		geminiSelectionPrompt(promptContext, initial), geminiFallbackTickers, initial)

	// Stage 2: case-sensitive union preserving first-seen order.
	candidates := union(claudePicks, geminiPicks)
	session.UniverseSize = len(candidates)
	session.AppendStage(models.StageRecord{
		Kind:          models.StageAggregation,
		UniqueTickers: candidates,
		UniqueCount:   len(candidates),
	})
	s.logger.Info().
		Int("claude", len(claudePicks)).
		Int("gemini", len(geminiPicks)).
		Int("unique", len(candidates)).
		Msg("Aggregated candidates")

	// Stage 3: one rationale per candidate.
	rationales, fallbackTickers := s.generateRationales(ctx, promptContext, candidates)
	session.AppendStage(models.StageRecord{
		Kind:            models.StageRationale,
		Rationales:      rationales,
		FallbackTickers: fallbackTickers,
	})

	// Stage 4: three independent narrowing rounds over the full pool.
	rounds := make([][]string, 0, narrowingRounds)
	for round := 1; round <= narrowingRounds; round++ {
		picks := s.narrowingRound(ctx, session, round, promptContext, candidates, rationales, target)
		rounds = append(rounds, picks)
	}

	// Stage 5: consolidate the round picks to exactly target tickers.
	final := s.consolidate(ctx, session, promptContext, candidates, rounds, rationales, target)

	session.CompletedAt = s.now()

	// Stage 6: persist the session exactly once.
	if s.sessions != nil {
		if err := s.sessions.SaveSession(ctx, session); err != nil {
			s.logger.Error().
				Err(err).
				Str("session_id", session.SessionID).
				Msg("Failed to persist selection session")
		}
	}

	finalRationales := make(map[string]string, len(final))
	for _, t := range final {
		if r, ok := rationales[t]; ok {
			finalRationales[t] = r
		} else {
			finalRationales[t] = FallbackRationale(t)
		}
	}

	s.logger.Info().
		Str("session_id", session.SessionID).
		Strs("tickers", final).
		Msg("Candidate selection complete")

	return &Result{
		Tickers:    final,
		Rationales: finalRationales,
		Session:    session,
	}, nil
}

// initialSelection runs one selector call, falling back to the fixed
// list when the provider is missing, the call fails, or the response
// does not parse.
func (s *Selector) initialSelection(ctx context.Context, session *models.SelectionSession, name string, provider interfaces.LLMProvider, prompt string, fallback []string, n int) []string {
	rec := models.StageRecord{
		Kind:     models.StageInitialSelection,
		Selector: name,
		Prompt:   prompt,
	}

	tickers, raw, err := s.requestTickers(ctx, provider, prompt, "initial_selection_"+name)
	rec.RawResponse = raw
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("selector", name).
			Msg("Initial selection failed, using fallback list")
		tickers = fallbackList(fallback, n)
		rec.FallbackUsed = true
	} else if len(tickers) > n {
		tickers = tickers[:n]
	}

	rec.Tickers = tickers
	session.AppendStage(rec)
	return tickers
}

// generateRationales produces a 4-sentence justification per candidate.
// Individual failures take the templated text; no ticker is dropped.
func (s *Selector) generateRationales(ctx context.Context, promptContext string, candidates []string) (map[string]string, []string) {
	provider := s.providers.Default(s.primary)
	rationales := make(map[string]string, len(candidates))
	var fallbacks []string

	for _, ticker := range candidates {
		text, err := s.providers.Generate(ctx, provider, &interfaces.TextRequest{
			Prompt:    rationalePrompt(promptContext, ticker),
			MaxTokens: 400,
		})
		if err != nil || text == "" {
			s.logger.Warn().
				Err(err).
				Str("ticker", ticker).
				Msg("Rationale generation failed, using templated text")
			text = FallbackRationale(ticker)
			fallbacks = append(fallbacks, ticker)
		}
		rationales[ticker] = text
	}
	return rationales, fallbacks
}

// narrowingRound asks for the best target-sized subset of the full pool.
// Rounds never see each other's output. A failed round falls back to the
// first target candidates.
func (s *Selector) narrowingRound(ctx context.Context, session *models.SelectionSession, round int, promptContext string, candidates []string, rationales map[string]string, target int) []string {
	prompt := narrowingPrompt(promptContext, candidates, rationales, target)
	rec := models.StageRecord{
		Kind:   models.StageNarrowingRound,
		Round:  round,
		Prompt: prompt,
	}

	provider := s.providers.Default(s.primary)
	picks, raw, err := s.requestTickersFrom(ctx, provider, prompt, "narrowing_round")
	rec.RawResponse = raw
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int("round", round).
			Msg("Narrowing round failed, taking leading candidates")
		picks = firstN(candidates, target)
		rec.FallbackUsed = true
	} else if len(picks) > target {
		picks = picks[:target]
	}

	rec.Picks = picks
	session.AppendStage(rec)
	return picks
}

// consolidate reduces the union of round picks to exactly target tickers.
func (s *Selector) consolidate(ctx context.Context, session *models.SelectionSession, promptContext string, candidates []string, rounds [][]string, rationales map[string]string, target int) []string {
	finalists := union(rounds...)
	rec := models.StageRecord{
		Kind:            models.StageFinalConsolidation,
		UniqueFinalists: finalists,
	}

	var final []string
	switch {
	case len(finalists) == target:
		final = finalists

	case len(finalists) > target:
		rec.NarrowingCall = true
		prompt := consolidationPrompt(promptContext, finalists, rationales, target)
		rec.Prompt = prompt

		provider := s.providers.Default(s.primary)
		picks, raw, err := s.requestTickersFrom(ctx, provider, prompt, "final_consolidation")
		rec.RawResponse = raw
		if err != nil {
			s.logger.Warn().Err(err).Msg("Consolidation call failed, taking leading finalists")
			picks = finalists
			rec.FallbackUsed = true
		}
		final = firstN(picks, target)

	default:
		// Fewer than target finalists: pad from the candidate pool in
		// first-seen order so the selection always reaches the target.
		final = append([]string(nil), finalists...)
		for _, t := range candidates {
			if len(final) >= target {
				break
			}
			if !contains(final, t) {
				final = append(final, t)
			}
		}
	}

	if len(final) > target {
		final = final[:target]
	}
	rec.FinalSelection = final
	session.AppendStage(rec)
	return final
}

// requestTickers handles a possibly-nil provider.
func (s *Selector) requestTickers(ctx context.Context, provider interfaces.LLMProvider, prompt, stage string) ([]string, string, error) {
	if provider == nil {
		return nil, "", &models.SelectionParseError{Stage: stage, Err: errProviderMissing}
	}
	return s.requestTickersFrom(ctx, provider, prompt, stage)
}

// requestTickersFrom performs one throttled call and parses its ticker
// list, returning the raw response for the session record either way.
func (s *Selector) requestTickersFrom(ctx context.Context, provider interfaces.LLMProvider, prompt, stage string) ([]string, string, error) {
	raw, err := s.providers.Generate(ctx, provider, &interfaces.TextRequest{
		Prompt:    prompt,
		MaxTokens: 500,
	})
	if err != nil {
		return nil, raw, err
	}
	tickers, err := llm.ParseTickerList(stage, raw)
	if err != nil {
		return nil, raw, err
	}
	return tickers, raw, nil
}

func (s *Selector) policySummary() models.PolicySummary {
	return models.PolicySummary{
		RiskTolerance:     s.policy.RiskTolerance,
		TimeHorizonYears:  s.policy.TimeHorizonYears,
		Objectives:        s.policy.Objectives,
		TargetReturnPct:   s.policy.TargetReturnPct,
		ProhibitedSectors: s.policy.ProhibitedSectors,
	}
}

// union merges lists case-sensitively, preserving first-seen order.
func union(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, t := range list {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

func firstN(list []string, n int) []string {
	if len(list) > n {
		list = list[:n]
	}
	return append([]string(nil), list...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var errProviderMissing = parseFailure("provider not configured")

type parseFailure string

func (e parseFailure) Error() string { return string(e) }
