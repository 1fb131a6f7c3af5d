// Package progress provides the phase-based time-remaining estimator for
// analysis runs. A shared History refines per-phase duration averages
// across runs; a Tracker owns the state of one run.
package progress

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ternarybob/vantage/internal/models"
)

// Phase names for the per-ticker analysis pipeline. Agent phases are
// derived from the agent names so the sequence stays in step with the
// runner.
const (
	PhaseDataGather = "data_gather"
	PhaseFinalize   = "finalize"
)

// AnalysisPhases returns the fixed forward-only phase sequence of a
// per-ticker run.
func AnalysisPhases() []string {
	phases := []string{PhaseDataGather}
	for _, name := range models.AgentNames() {
		phases = append(phases, "agent_"+name)
	}
	return append(phases, PhaseFinalize)
}

// EMA blend applied when a phase duration is observed.
const (
	historyOld = 0.7
	historyNew = 0.3
)

// Estimate smoothing. Each emitted estimate blends with the previous one
// and may not grow more than 20% over it.
const (
	smoothingAlpha = 0.35
	growthCap      = 1.2
)

// decayThreshold is the overall progress beyond which the estimate is
// forced linearly toward zero, so the countdown lands at zero when the
// run completes.
const decayThreshold = 0.85

// History holds per-phase duration averages shared across runs. Safe for
// concurrent use.
type History struct {
	mu  sync.Mutex
	avg map[string]time.Duration
}

// NewHistory creates a History seeded with rough initial expectations.
// Observed durations refine these over time.
func NewHistory() *History {
	avg := map[string]time.Duration{
		PhaseDataGather: 10 * time.Second,
		PhaseFinalize:   2 * time.Second,
	}
	for _, name := range models.AgentNames() {
		avg["agent_"+name] = 6 * time.Second
	}
	return &History{avg: avg}
}

// Observe folds an observed phase duration into the average:
// new = 0.7*old + 0.3*observed. Unknown phases adopt the observation.
func (h *History) Observe(phase string, d time.Duration) {
	if d <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	old, ok := h.avg[phase]
	if !ok {
		h.avg[phase] = d
		return
	}
	h.avg[phase] = time.Duration(historyOld*float64(old) + historyNew*float64(d))
}

// Expected returns the current average for a phase, zero if unknown.
func (h *History) Expected(phase string) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.avg[phase]
}

// Tracker estimates time remaining for one run over a fixed phase
// sequence. Not safe for concurrent use; each run owns its tracker.
type Tracker struct {
	history    *History
	phases     []string
	idx        int
	phaseStart time.Time
	durations  map[string]time.Duration

	lastETA float64
	hasETA  bool

	now func() time.Time
}

// NewTracker creates a tracker over the given phase sequence backed by
// the shared history.
func NewTracker(history *History, phases []string) *Tracker {
	if history == nil {
		history = NewHistory()
	}
	return &Tracker{
		history:   history,
		phases:    phases,
		idx:       -1,
		durations: make(map[string]time.Duration),
		now:       time.Now,
	}
}

// StartPhase closes the currently open phase, recording its elapsed
// duration into the run's state and the shared history, then opens the
// timer for the named phase. Unknown names are ignored; phases only move
// forward.
func (t *Tracker) StartPhase(name string) {
	target := t.indexOf(name)
	if target < 0 || target <= t.idx {
		return
	}
	t.closeCurrent()
	t.idx = target
	t.phaseStart = t.now()
}

// Finish closes the final phase and records its duration.
func (t *Tracker) Finish() {
	t.closeCurrent()
	t.idx = len(t.phases)
}

func (t *Tracker) closeCurrent() {
	if t.idx < 0 || t.idx >= len(t.phases) || t.phaseStart.IsZero() {
		return
	}
	phase := t.phases[t.idx]
	elapsed := t.now().Sub(t.phaseStart)
	t.durations[phase] = elapsed
	t.history.Observe(phase, elapsed)
}

// EstimateRemaining returns the smoothed estimate of seconds remaining
// given progress within the current phase (0..1). Before any phase has
// started it returns (0, false).
//
// The raw figure is hist(current)*(1-p) plus the historical averages of
// every later phase. Each emitted value blends with the previous one
// (alpha 0.35), may not exceed the prior by more than 20%, and decays
// linearly to zero once overall progress passes 85%.
func (t *Tracker) EstimateRemaining(phaseProgress float64) (float64, bool) {
	if t.idx < 0 || len(t.phases) == 0 {
		return 0, false
	}
	p := clamp01(phaseProgress)

	var raw float64
	if t.idx < len(t.phases) {
		raw = t.history.Expected(t.phases[t.idx]).Seconds() * (1 - p)
		for _, phase := range t.phases[t.idx+1:] {
			raw += t.history.Expected(phase).Seconds()
		}
	}

	eta := raw
	if t.hasETA {
		eta = smoothingAlpha*raw + (1-smoothingAlpha)*t.lastETA
		if cap := t.lastETA * growthCap; eta > cap {
			eta = cap
		}
	}

	if overall := t.overallProgress(p); overall >= decayThreshold {
		eta *= (1 - overall) / (1 - decayThreshold)
	}
	if eta < 0 {
		eta = 0
	}

	t.lastETA = eta
	t.hasETA = true
	return eta, true
}

// overallProgress places the run on a 0..1 scale assuming phases of
// equal nominal weight.
func (t *Tracker) overallProgress(phaseProgress float64) float64 {
	if len(t.phases) == 0 {
		return 1
	}
	if t.idx >= len(t.phases) {
		return 1
	}
	return clamp01((float64(t.idx) + phaseProgress) / float64(len(t.phases)))
}

func (t *Tracker) indexOf(name string) int {
	for i, phase := range t.phases {
		if phase == name {
			return i
		}
	}
	return -1
}

// FormatETA renders seconds as "~45s" or "~1m 30s" for progress sinks.
func FormatETA(seconds float64) string {
	s := int(math.Round(seconds))
	if s < 0 {
		s = 0
	}
	if s < 60 {
		return fmt.Sprintf("~%ds", s)
	}
	m, r := s/60, s%60
	if r == 0 {
		return fmt.Sprintf("~%dm", m)
	}
	return fmt.Sprintf("~%dm %ds", m, r)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
