package progress

import (
	"testing"
	"time"
)

// fakeClock advances manually so phase durations are deterministic.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	tr := NewTracker(NewHistory(), AnalysisPhases())
	tr.now = clock.now
	return tr, clock
}

func TestTracker_NoEstimateBeforeData(t *testing.T) {
	tr, _ := newTestTracker()

	if _, ok := tr.EstimateRemaining(0); ok {
		t.Fatal("expected no estimate before any phase started")
	}
}

func TestTracker_EstimateCoversLaterPhases(t *testing.T) {
	tr, _ := newTestTracker()
	tr.StartPhase(PhaseDataGather)

	eta, ok := tr.EstimateRemaining(0)
	if !ok {
		t.Fatal("expected an estimate once a phase is open")
	}

	// All seven phases ahead: 10s gather + 5 agents at 6s + 2s finalize.
	want := 10.0 + 5*6.0 + 2.0
	if eta != want {
		t.Errorf("initial estimate = %v, want %v", eta, want)
	}
}

func TestTracker_EstimateNeverJumpsUp(t *testing.T) {
	tr, _ := newTestTracker()
	tr.StartPhase(PhaseDataGather)

	prev, _ := tr.EstimateRemaining(0.5)
	for _, p := range []float64{0.1, 0.9, 0.0, 1.0} {
		eta, _ := tr.EstimateRemaining(p)
		if eta > prev*growthCap+1e-9 {
			t.Fatalf("estimate %v exceeds prior %v by more than 20%%", eta, prev)
		}
		prev = eta
	}
}

func TestTracker_EstimateDecreasesWithProgress(t *testing.T) {
	tr, _ := newTestTracker()
	tr.StartPhase(PhaseDataGather)

	var last float64 = -1
	phases := AnalysisPhases()
	for _, phase := range phases {
		tr.StartPhase(phase)
		for _, p := range []float64{0.0, 0.5, 1.0} {
			eta, ok := tr.EstimateRemaining(p)
			if !ok {
				t.Fatal("expected estimate")
			}
			if last >= 0 && eta > last*growthCap+1e-9 {
				t.Fatalf("estimate %v at phase %s grew past cap over %v", eta, phase, last)
			}
			last = eta
		}
	}
}

func TestTracker_DecaysToZeroNearCompletion(t *testing.T) {
	tr, _ := newTestTracker()
	for _, phase := range AnalysisPhases() {
		tr.StartPhase(phase)
	}

	// Final phase fully complete: overall progress is 1.0.
	eta, ok := tr.EstimateRemaining(1.0)
	if !ok {
		t.Fatal("expected estimate")
	}
	if eta != 0 {
		t.Errorf("estimate at completion = %v, want 0", eta)
	}
}

func TestTracker_RecordsDurationsIntoHistory(t *testing.T) {
	tr, clock := newTestTracker()
	hist := tr.history

	before := hist.Expected(PhaseDataGather)

	tr.StartPhase(PhaseDataGather)
	clock.advance(20 * time.Second)
	tr.StartPhase("agent_value")

	after := hist.Expected(PhaseDataGather)
	want := time.Duration(0.7*float64(before) + 0.3*float64(20*time.Second))
	if after != want {
		t.Errorf("history after observation = %v, want %v", after, want)
	}
}

func TestTracker_PhasesOnlyMoveForward(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartPhase(PhaseFinalize)
	clock.advance(time.Second)

	// Moving back to an earlier phase is ignored.
	tr.StartPhase(PhaseDataGather)
	if got := tr.phases[tr.idx]; got != PhaseFinalize {
		t.Errorf("current phase = %s, want %s", got, PhaseFinalize)
	}
}

func TestHistory_Observe(t *testing.T) {
	h := NewHistory()

	h.Observe("custom_phase", 4*time.Second)
	if got := h.Expected("custom_phase"); got != 4*time.Second {
		t.Errorf("new phase average = %v, want 4s", got)
	}

	h.Observe("custom_phase", 14*time.Second)
	want := time.Duration(0.7*float64(4*time.Second) + 0.3*float64(14*time.Second))
	if got := h.Expected("custom_phase"); got != want {
		t.Errorf("blended average = %v, want %v", got, want)
	}

	// Non-positive observations are discarded.
	h.Observe("custom_phase", 0)
	if got := h.Expected("custom_phase"); got != want {
		t.Errorf("average changed on zero observation: %v", got)
	}
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "~0s"},
		{-3, "~0s"},
		{45, "~45s"},
		{59.4, "~59s"},
		{60, "~1m"},
		{90, "~1m 30s"},
		{150.2, "~2m 30s"},
	}

	for _, tt := range tests {
		if got := FormatETA(tt.seconds); got != tt.want {
			t.Errorf("FormatETA(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
