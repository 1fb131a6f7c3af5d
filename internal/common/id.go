package common

import (
	"time"

	"github.com/google/uuid"
)

// NewRunID generates a unique portfolio run ID with the "run_" prefix
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewAnalysisID generates a unique analysis ID with the "analysis_" prefix
// Format: analysis_<uuid>
func NewAnalysisID() string {
	return "analysis_" + uuid.New().String()
}

// NewSessionID generates a timestamp-derived selection session ID.
// Format: 20060102_150405 - also used in the session export filename.
func NewSessionID(t time.Time) string {
	return t.Format("20060102_150405")
}
