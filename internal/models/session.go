package models

import "time"

// StageKind identifies a selection protocol stage.
type StageKind string

const (
	StageInitialSelection   StageKind = "initial_selection"
	StageAggregation        StageKind = "aggregation"
	StageRationale          StageKind = "rationale_generation"
	StageNarrowingRound     StageKind = "narrowing_round"
	StageFinalConsolidation StageKind = "final_consolidation"
)

// StageRecord captures one stage of the candidate selection protocol.
// Fields are populated per Kind; unused fields stay at their zero value.
type StageRecord struct {
	Kind      StageKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// Initial selection
	Selector     string   `json:"selector,omitempty"` // "claude" or "gemini"
	Prompt       string   `json:"prompt,omitempty"`
	RawResponse  string   `json:"raw_response,omitempty"`
	Tickers      []string `json:"tickers,omitempty"`
	FallbackUsed bool     `json:"fallback_used,omitempty"`

	// Aggregation
	UniqueTickers []string `json:"unique_tickers,omitempty"`
	UniqueCount   int      `json:"unique_count,omitempty"`

	// Rationale generation
	Rationales      map[string]string `json:"rationales,omitempty"`
	FallbackTickers []string          `json:"fallback_tickers,omitempty"`

	// Narrowing rounds
	Round int      `json:"round,omitempty"`
	Picks []string `json:"picks,omitempty"`

	// Final consolidation
	UniqueFinalists []string `json:"unique_finalists,omitempty"`
	FinalSelection  []string `json:"final_selection,omitempty"`
	NarrowingCall   bool     `json:"narrowing_call,omitempty"`
}

// SelectionSession is the append-only record of one full selection run.
// It is persisted exactly once, after consolidation completes.
type SelectionSession struct {
	SessionID     string        `json:"session_id" badgerhold:"key"`
	ChallengeText string        `json:"challenge_text"`
	UniverseSize  int           `json:"universe_size"`
	TargetCount   int           `json:"target_count"`
	Constraints   PolicySummary `json:"constraints"`
	Stages        []StageRecord `json:"stages"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   time.Time     `json:"completed_at"`
}

// PolicySummary is the policy context snapshot embedded in a session log.
type PolicySummary struct {
	RiskTolerance     string   `json:"risk_tolerance,omitempty"`
	TimeHorizonYears  int      `json:"time_horizon_years,omitempty"`
	Objectives        []string `json:"objectives,omitempty"`
	TargetReturnPct   float64  `json:"target_return_pct,omitempty"`
	ProhibitedSectors []string `json:"prohibited_sectors,omitempty"`
}

// AppendStage records a stage with a timestamp.
func (s *SelectionSession) AppendStage(rec StageRecord) {
	rec.Timestamp = time.Now()
	s.Stages = append(s.Stages, rec)
}

// FinalSelection returns the consolidated ticker set, or nil if the
// consolidation stage has not been recorded yet.
func (s *SelectionSession) FinalSelection() []string {
	for i := len(s.Stages) - 1; i >= 0; i-- {
		if s.Stages[i].Kind == StageFinalConsolidation {
			return s.Stages[i].FinalSelection
		}
	}
	return nil
}
