package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	MarketData  MarketDataConfig `toml:"market_data"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
	Analysis    AnalysisConfig   `toml:"analysis"`
	Selection   SelectionConfig  `toml:"selection"`
	Policy      PolicyConfig     `toml:"policy"`
	Refresh     RefreshConfig    `toml:"refresh"`
}

type StorageConfig struct {
	Badger   BadgerConfig   `toml:"badger"`
	Sessions SessionsConfig `toml:"sessions"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// SessionsConfig controls where selection session JSON exports are written
type SessionsConfig struct {
	Dir string `toml:"dir"` // Directory for portfolio_selection_*.json exports
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"omitempty,oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Format string   `toml:"format"`                                                 // "json" or "text"
	Output []string `toml:"output"`                                                 // "stdout", "file"
}

// MarketDataConfig contains the EODHD-compatible market data API configuration
type MarketDataConfig struct {
	APIKey         string `toml:"api_key"`         // EODHD API token
	BaseURL        string `toml:"base_url"`        // Override API base URL (empty = production)
	RateLimit      int    `toml:"rate_limit"`      // Requests per second
	RequestTimeout string `toml:"request_timeout"` // HTTP timeout as duration string
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for selection operations (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (ANTHROPIC_API_KEY also honored)
	Model       string  `toml:"model"`       // Model for selection and rationale operations
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains shared configuration for all AI providers, including
// the outbound call throttle applied to every LLM request.
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // Default provider: "claude" or "gemini"
	MinCallDelay    string      `toml:"min_call_delay"`   // Minimum delay between outbound calls (default: "500ms")
	BaseBackoff     string      `toml:"base_backoff"`     // Linear backoff unit on throttling (default: "10s")
	MaxRetries      int         `toml:"max_retries"`      // Retry attempts on throttling signals (default: 3)
}

// AnalysisConfig controls the per-ticker analysis pipeline
type AnalysisConfig struct {
	LookbackDays   int                `toml:"lookback_days"`   // Price history window (default: 365)
	FetchWorkers   int                `toml:"fetch_workers"`   // Parallel data fetch pool size (default: 3)
	ArchiveResults bool               `toml:"archive_results"` // Persist completed analyses to the archive
	Weights        map[string]float64 `toml:"weights"`         // Blend weight overrides by agent name
}

// SelectionConfig controls the AI candidate selection protocol
type SelectionConfig struct {
	InitialCount int    `toml:"initial_count"` // Tickers requested from each selector (default: 20)
	TargetCount  int    `toml:"target_count"`  // Final portfolio candidate count (default: 5)
	Challenge    string `toml:"challenge"`     // Default challenge context when a request has none
}

// PolicyConfig points at the investment policy profile file
type PolicyConfig struct {
	Profile string `toml:"profile"` // Path to the YAML policy profile (empty = built-in defaults)
}

// RefreshConfig controls the scheduled watchlist re-analysis job
type RefreshConfig struct {
	Enabled    bool   `toml:"enabled"`     // Disabled by default
	Schedule   string `toml:"schedule"`    // Cron schedule (default: "0 6 * * *")
	MaxTickers int    `toml:"max_tickers"` // Cap on archived tickers re-analyzed per tick
}

// DefaultChallenge is the challenge context used when neither the request
// nor the config supplies one.
const DefaultChallenge = "Build a diversified portfolio of high-quality US equities " +
	"balancing growth potential against downside risk for a long-term investor."

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in vantage.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Sessions: SessionsConfig{
				Dir: "./data/sessions",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		MarketData: MarketDataConfig{
			APIKey:         "", // User must provide API key in config file
			RateLimit:      10,
			RequestTimeout: "30s",
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (no fallback)
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
			MinCallDelay:    "500ms",
			BaseBackoff:     "10s",
			MaxRetries:      3,
		},
		Analysis: AnalysisConfig{
			LookbackDays:   365,
			FetchWorkers:   3,
			ArchiveResults: true,
		},
		Selection: SelectionConfig{
			InitialCount: 20,
			TargetCount:  5,
			Challenge:    DefaultChallenge,
		},
		Policy: PolicyConfig{
			Profile: "",
		},
		Refresh: RefreshConfig{
			Enabled:    false, // Disabled by default - user must explicitly opt-in
			Schedule:   "0 6 * * *",
			MaxTickers: 10,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Duration strings are parsed at use sites; fail fast here instead.
	for name, value := range map[string]string{
		"market_data.request_timeout": c.MarketData.RequestTimeout,
		"gemini.timeout":              c.Gemini.Timeout,
		"claude.timeout":              c.Claude.Timeout,
		"llm.min_call_delay":          c.LLM.MinCallDelay,
		"llm.base_backoff":            c.LLM.BaseBackoff,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: VANTAGE_ENV, fallback: GO_ENV)
	if env := os.Getenv("VANTAGE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Storage configuration
	if badgerPath := os.Getenv("VANTAGE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if sessionsDir := os.Getenv("VANTAGE_SESSIONS_DIR"); sessionsDir != "" {
		config.Storage.Sessions.Dir = sessionsDir
	}

	// Logging configuration
	if level := os.Getenv("VANTAGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("VANTAGE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("VANTAGE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Market data configuration
	if apiKey := os.Getenv("VANTAGE_MARKET_DATA_API_KEY"); apiKey != "" {
		config.MarketData.APIKey = apiKey
	}
	if baseURL := os.Getenv("VANTAGE_MARKET_DATA_BASE_URL"); baseURL != "" {
		config.MarketData.BaseURL = baseURL
	}
	if rateLimit := os.Getenv("VANTAGE_MARKET_DATA_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil {
			config.MarketData.RateLimit = rl
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("VANTAGE_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("VANTAGE_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("VANTAGE_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("VANTAGE_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // VANTAGE_ prefix takes priority
	}
	if model := os.Getenv("VANTAGE_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("VANTAGE_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("VANTAGE_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}

	// LLM throttle configuration
	if provider := os.Getenv("VANTAGE_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if minDelay := os.Getenv("VANTAGE_LLM_MIN_CALL_DELAY"); minDelay != "" {
		if _, err := time.ParseDuration(minDelay); err == nil {
			config.LLM.MinCallDelay = minDelay
		}
	}
	if baseBackoff := os.Getenv("VANTAGE_LLM_BASE_BACKOFF"); baseBackoff != "" {
		if _, err := time.ParseDuration(baseBackoff); err == nil {
			config.LLM.BaseBackoff = baseBackoff
		}
	}
	if maxRetries := os.Getenv("VANTAGE_LLM_MAX_RETRIES"); maxRetries != "" {
		if mr, err := strconv.Atoi(maxRetries); err == nil {
			config.LLM.MaxRetries = mr
		}
	}

	// Analysis configuration
	if lookback := os.Getenv("VANTAGE_ANALYSIS_LOOKBACK_DAYS"); lookback != "" {
		if ld, err := strconv.Atoi(lookback); err == nil {
			config.Analysis.LookbackDays = ld
		}
	}
	if workers := os.Getenv("VANTAGE_ANALYSIS_FETCH_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Analysis.FetchWorkers = w
		}
	}
	if archive := os.Getenv("VANTAGE_ANALYSIS_ARCHIVE_RESULTS"); archive != "" {
		if a, err := strconv.ParseBool(archive); err == nil {
			config.Analysis.ArchiveResults = a
		}
	}

	// Selection configuration
	if initialCount := os.Getenv("VANTAGE_SELECTION_INITIAL_COUNT"); initialCount != "" {
		if ic, err := strconv.Atoi(initialCount); err == nil {
			config.Selection.InitialCount = ic
		}
	}
	if targetCount := os.Getenv("VANTAGE_SELECTION_TARGET_COUNT"); targetCount != "" {
		if tc, err := strconv.Atoi(targetCount); err == nil {
			config.Selection.TargetCount = tc
		}
	}

	// Policy configuration
	if profile := os.Getenv("VANTAGE_POLICY_PROFILE"); profile != "" {
		config.Policy.Profile = profile
	}

	// Refresh configuration
	if enabled := os.Getenv("VANTAGE_REFRESH_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Refresh.Enabled = e
		}
	}
	if schedule := os.Getenv("VANTAGE_REFRESH_SCHEDULE"); schedule != "" {
		config.Refresh.Schedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, logLevel string, dataDir string) {
	// Command-line flags have highest priority
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if dataDir != "" {
		config.Storage.Badger.Path = dataDir
	}
}

// ResolveAPIKey resolves an API key with environment variable priority.
// Resolution order: environment variables -> config fallback -> error.
func ResolveAPIKey(name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":      {"VANTAGE_GEMINI_API_KEY"},
		"anthropic_api_key":   {"VANTAGE_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"market_data_api_key": {"VANTAGE_MARKET_DATA_API_KEY"},
	}

	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// ParseDurationOr parses a duration string, falling back to def when the
// string is empty or malformed.
func ParseDurationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
