package agents

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
)

// Runner executes scoring agents sequentially in registration order.
// Sequencing keeps the shared LLM throttle conservative and gives phase
// progress a legible shape.
type Runner struct {
	logger arbor.ILogger
}

func NewRunner(logger arbor.ILogger) *Runner {
	return &Runner{logger: logger}
}

// RunAll executes every agent and returns results keyed by agent name.
// Agent failures never abort the run.
func (r *Runner) RunAll(ctx context.Context, ticker string, bundle *models.DataBundle, agents []interfaces.Agent) map[string]models.AgentResult {
	return r.RunEach(ctx, ticker, bundle, agents, nil)
}

// RunEach is RunAll with a per-agent callback, invoked after each agent
// completes, for phase progress reporting. The callback may be nil.
func (r *Runner) RunEach(ctx context.Context, ticker string, bundle *models.DataBundle, agents []interfaces.Agent, onResult func(i int, agent interfaces.Agent, result models.AgentResult)) map[string]models.AgentResult {
	results := make(map[string]models.AgentResult, len(agents))

	for i, agent := range agents {
		result := r.runOne(ctx, ticker, bundle, agent)
		result.CoalesceScore()
		results[agent.Name()] = result

		r.logger.Debug().
			Str("ticker", ticker).
			Str("agent", agent.Name()).
			Float64("score", result.Score).
			Msg("Agent completed")

		if onResult != nil {
			onResult(i, agent, result)
		}
	}

	return results
}

// runOne executes a single agent, converting panics and errors into a
// neutral failure result for that agent only.
func (r *Runner) runOne(ctx context.Context, ticker string, bundle *models.DataBundle, agent interfaces.Agent) (result models.AgentResult) {
	defer func() {
		if rec := recover(); rec != nil {
			err := common.RecoverToError(rec)
			r.logger.Warn().
				Err(err).
				Str("ticker", ticker).
				Str("agent", agent.Name()).
				Msg("Agent panicked")
			result = failureResult(agent.Name(), err)
		}
	}()

	result, err := agent.Analyze(ctx, ticker, bundle)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("ticker", ticker).
			Str("agent", agent.Name()).
			Msg("Agent failed")
		return failureResult(agent.Name(), err)
	}
	result.AgentName = agent.Name()
	return result
}

func failureResult(name string, err error) models.AgentResult {
	return models.AgentResult{
		AgentName: name,
		Score:     50,
		Rationale: fmt.Sprintf("Analysis failed: %v", err),
	}
}
