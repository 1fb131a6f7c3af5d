// Package app wires the application components together: configuration,
// storage, market data, LLM providers, the analysis orchestrator, the
// candidate selector, and the watchlist refresher.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/marketdata"
	"github.com/ternarybob/vantage/internal/services/agents"
	"github.com/ternarybob/vantage/internal/services/analysis"
	"github.com/ternarybob/vantage/internal/services/llm"
	"github.com/ternarybob/vantage/internal/services/scheduler"
	"github.com/ternarybob/vantage/internal/services/selection"
	"github.com/ternarybob/vantage/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger
	Policy *common.PolicyProfile

	DB             *badger.BadgerDB
	SessionStorage interfaces.SessionStorage
	ArchiveStorage interfaces.ArchiveStorage

	MarketData interfaces.MarketDataProvider
	Providers  *llm.Providers

	Selector     *selection.Selector
	Orchestrator *analysis.Orchestrator
	Refresher    *scheduler.Refresher

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the application with all services wired.
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) (*App, error) {
	if logger == nil {
		logger = common.GetLogger()
	}

	appCtx, cancel := context.WithCancel(ctx)

	a := &App{
		Config: config,
		Logger: logger,
		ctx:    appCtx,
		cancel: cancel,
	}

	if err := a.init(); err != nil {
		cancel()
		a.closeStorage()
		return nil, err
	}

	logger.Info().
		Str("environment", config.Environment).
		Msg("Application initialized")

	return a, nil
}

func (a *App) init() error {
	policy, err := common.LoadPolicyProfile(a.Config.Policy.Profile)
	if err != nil {
		return fmt.Errorf("failed to load policy profile: %w", err)
	}
	a.Policy = policy

	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.DB = db
	db.StartGC(a.ctx, time.Hour)
	a.SessionStorage = badger.NewSessionStorage(db, a.Config.Storage.Sessions.Dir, a.Logger)
	a.ArchiveStorage = badger.NewArchiveStorage(db, a.Logger)

	market, err := marketdata.NewProvider(&a.Config.MarketData, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize market data provider: %w", err)
	}
	a.MarketData = market

	providers, err := llm.NewProviders(a.ctx, a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM providers: %w", err)
	}
	a.Providers = providers

	// Agent rationales are narrated by the default provider through the
	// shared throttle; narration failures keep the deterministic text.
	narrate := func(ctx context.Context, prompt string) (string, error) {
		provider := providers.Default(a.Config.LLM.DefaultProvider)
		return providers.Generate(ctx, provider, &interfaces.TextRequest{
			Prompt:    prompt,
			MaxTokens: 300,
		})
	}

	a.Selector = selection.NewSelector(providers, a.SessionStorage, policy, a.Config, a.Logger)

	fetcher := analysis.NewFetcher(market, a.Config.Analysis.FetchWorkers, a.Logger)
	runner := agents.NewRunner(a.Logger)
	agentList := agents.Defaults(a.Logger, narrate)
	a.Orchestrator = analysis.NewOrchestrator(fetcher, runner, agentList, a.Selector, a.ArchiveStorage, policy, a.Config, a.Logger)

	a.Refresher = scheduler.NewRefresher(a.Orchestrator, a.ArchiveStorage, a.Config, a.Logger)

	return nil
}

// Context returns the application's root context, cancelled on Close.
func (a *App) Context() context.Context {
	return a.ctx
}

// Close shuts the application down: the refresher stops first so no
// analysis is in flight when storage closes.
func (a *App) Close() error {
	a.Logger.Info().Msg("Shutting down application")

	if a.Refresher != nil {
		a.Refresher.Stop()
	}
	a.cancel()
	return a.closeStorage()
}

func (a *App) closeStorage() error {
	if a.DB == nil {
		return nil
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close database")
		return err
	}
	return nil
}
