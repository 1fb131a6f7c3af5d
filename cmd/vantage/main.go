package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vantage/internal/app"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
	"github.com/ternarybob/vantage/internal/services/progress"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	logLevel     = flag.String("log-level", "", "Log level (overrides config)")
	dataDir      = flag.String("data-dir", "", "Badger database directory (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
	flag.Usage = usage
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: vantage [flags] <command> [args]

Commands:
  analyze <TICKER...>   Run the multi-agent analysis for one or more tickers
  select [flags]        Build an AI-selected portfolio recommendation
  serve                 Run the scheduled watchlist refresh loop

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Vantage version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("vantage.toml"); err == nil {
			configFiles = append(configFiles, "vantage.toml")
		} else if _, err := os.Stat("deployments/local/vantage.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/vantage.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *logLevel, *dataDir)

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("environment", config.Environment).
		Str("log_level", config.Logging.Level).
		Msg("Application configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	switch args[0] {
	case "analyze":
		err = runAnalyze(ctx, application, args[1:])
	case "select":
		err = runSelect(ctx, application, args[1:])
	case "serve":
		err = runServe(ctx, application)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error().Err(err).Str("command", args[0]).Msg("Command failed")
		os.Exit(1)
	}
}

// consoleSink renders per-ticker progress with the smoothed ETA.
func consoleSink(ticker string) interfaces.ProgressSink {
	return func(message string, percent int, etaSeconds float64) {
		eta := ""
		if etaSeconds > 0 {
			eta = fmt.Sprintf(" (%s remaining)", progress.FormatETA(etaSeconds))
		}
		fmt.Printf("[%3d%%] %s: %s%s\n", percent, ticker, message, eta)
	}
}

func runAnalyze(ctx context.Context, application *app.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("analyze requires at least one ticker")
	}

	tickers := common.NormalizeTickers(args)
	var failures int
	for _, ticker := range tickers {
		analysis := application.Orchestrator.AnalyzeStockWithProgress(ctx,
			&models.AnalysisRequest{Ticker: ticker}, consoleSink(ticker))

		if analysis.Failed() {
			failures++
			fmt.Printf("\n%s: analysis failed: %s\n", ticker, analysis.Err)
			continue
		}

		fmt.Printf("\n%s\n\n", analysis.Rationale)
		fmt.Printf("%s: %.2f/100 %s", ticker, analysis.FinalScore, analysis.Recommendation)
		if !analysis.Eligible {
			fmt.Printf(" [ineligible: %s]", strings.Join(analysis.EligibilityNote, "; "))
		}
		fmt.Println()
	}

	if failures == len(tickers) {
		return fmt.Errorf("all %d analyses failed", failures)
	}
	return nil
}

func runSelect(ctx context.Context, application *app.App, args []string) error {
	fs := flag.NewFlagSet("select", flag.ExitOnError)
	positions := fs.Int("positions", 5, "Number of portfolio positions")
	universe := fs.Int("universe", 0, "Initial candidates per selector (0 = configured default)")
	challenge := fs.String("challenge", "", "Investment challenge text (empty = configured default)")
	manual := fs.String("tickers", "", "Comma-separated manual ticker list (bypasses AI selection)")
	asOf := fs.String("as-of", "", "Analysis date YYYY-MM-DD (empty = today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := &models.PortfolioRequest{
		ChallengeText: *challenge,
		NumPositions:  *positions,
		UniverseSize:  *universe,
		AsOfDate:      *asOf,
	}
	if *manual != "" {
		req.ManualTickers = common.NormalizeTickers(strings.Split(*manual, ","))
	}

	portfolio, err := application.Orchestrator.RecommendPortfolioWithProgress(ctx, req, consoleSink)
	if err != nil {
		return err
	}

	fmt.Printf("\nPortfolio %s (%s selection", portfolio.RunID, portfolio.Summary.SelectionMethod)
	if portfolio.SessionID != "" {
		fmt.Printf(", session %s", portfolio.SessionID)
	}
	fmt.Println(")")
	fmt.Println(strings.Repeat("-", 80))
	for _, p := range portfolio.Positions {
		fmt.Printf("%-8s %6.2f%%  score %6.2f  %-11s %s\n",
			p.Ticker, p.TargetWeightPct, p.FinalScore, p.Recommendation, p.Sector)
	}
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("Average score %.2f across %d positions\n",
		portfolio.Summary.AvgScore, portfolio.Summary.NumPositions)
	for sector, weight := range portfolio.Summary.SectorExposure {
		fmt.Printf("  %-24s %6.2f%%\n", sector, weight)
	}
	if len(portfolio.FailedTickers) > 0 {
		fmt.Printf("Failed tickers: %s\n", strings.Join(portfolio.FailedTickers, ", "))
	}
	return nil
}

func runServe(ctx context.Context, application *app.App) error {
	if !application.Config.Refresh.Enabled {
		return fmt.Errorf("watchlist refresh is disabled: set [refresh] enabled = true")
	}
	if err := application.Refresher.Start(); err != nil {
		return err
	}

	application.Logger.Info().Msg("Watchlist refresh running, Ctrl+C to stop")
	<-ctx.Done()
	return nil
}
