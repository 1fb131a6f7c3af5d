// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"

	"github.com/ternarybob/vantage/internal/models"
)

// Agent scores one ticker from a fetched data bundle.
// Implementations must tolerate empty bundle fields and degrade to a
// neutral or missing score rather than returning an error for thin data.
type Agent interface {
	// Name returns the canonical agent name used as the score map key.
	Name() string

	// Analyze scores the ticker. A returned error (or panic) is caught by
	// the runner, which substitutes a neutral result for this agent only.
	Analyze(ctx context.Context, ticker string, bundle *models.DataBundle) (models.AgentResult, error)
}
