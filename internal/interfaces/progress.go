package interfaces

// ProgressSink receives progress updates from an orchestration run.
// percent is 0-100 and never decreases within one phase. etaSeconds is the
// smoothed time-remaining estimate; a negative value means no estimate is
// available yet. Callers must tolerate any number of invocations.
type ProgressSink func(message string, percent int, etaSeconds float64)

// NopProgressSink discards progress updates.
func NopProgressSink(string, int, float64) {}
