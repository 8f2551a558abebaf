package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Logging    LoggingConfig    `toml:"logging"`
	Market     MarketConfig     `toml:"market"`
	Polygon    PolygonConfig    `toml:"polygon"`
	EODHD      EODHDConfig      `toml:"eodhd"`
	LLM        LLMConfig        `toml:"llm"`
	Claude     ClaudeConfig     `toml:"claude"`
	Gemini     GeminiConfig     `toml:"gemini"`
	OpenAI     OpenAIConfig     `toml:"openai"`
	Completion CompletionConfig `toml:"completion"`
	Renderer   RendererConfig   `toml:"renderer"`
	Report     ReportConfig     `toml:"report"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output     []string `toml:"output" validate:"dive,oneof=stdout console file"`
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
	File       string   `toml:"file"`        // Log file path when "file" output is enabled
}

// MarketProvider selects the market data gateway implementation
type MarketProvider string

const (
	MarketProviderPolygon MarketProvider = "polygon"
	MarketProviderEODHD   MarketProvider = "eodhd"
)

// MarketConfig contains settings shared by all market data gateways
type MarketConfig struct {
	Provider  MarketProvider `toml:"provider" validate:"oneof=polygon eodhd"`
	Timeout   string         `toml:"timeout"`                     // Per-request timeout (default: "30s")
	RateLimit int            `toml:"rate_limit" validate:"min=0"` // Requests per minute across all symbols; 0 uses the provider default
}

// PolygonConfig contains Polygon (massive.com) aggregates API configuration
type PolygonConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// EODHDConfig contains EODHD end-of-day API configuration
type EODHDConfig struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Exchange string `toml:"exchange"` // Suffix appended to bare tickers (default: "US")
}

// LLMProvider represents the narrative provider type
type LLMProvider string

const (
	// LLMProviderClaude uses the Anthropic Messages API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderOpenAI uses the OpenAI Chat Completions API
	LLMProviderOpenAI LLMProvider = "openai"
	// LLMProviderCompletion posts {prompt, model, max_tokens} to a raw completion endpoint
	LLMProviderCompletion LLMProvider = "completion"
	// LLMProviderOffline builds the narrative locally without any network call
	LLMProviderOffline LLMProvider = "offline"
)

// LLMConfig selects the narrative provider
type LLMConfig struct {
	Provider LLMProvider `toml:"provider" validate:"oneof=claude gemini openai completion offline"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens" validate:"min=1"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
	BaseURL     string  `toml:"base_url"` // Optional API endpoint override
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens" validate:"min=1"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
	BaseURL     string  `toml:"base_url"` // Optional API endpoint override
}

// OpenAIConfig contains OpenAI Chat Completions API configuration
type OpenAIConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens" validate:"min=1"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
	BaseURL     string  `toml:"base_url"` // Optional API endpoint override
}

// CompletionConfig contains configuration for a raw text-completion endpoint
type CompletionConfig struct {
	URL       string `toml:"url"`
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens" validate:"min=1"`
	Timeout   string `toml:"timeout"`
	Field     string `toml:"field"` // Response field holding the generated text (default: "completion")
}

// RendererEngine selects how documents are compiled
type RendererEngine string

const (
	// RendererEngineLaTeX writes .tex sources and runs an external compiler
	RendererEngineLaTeX RendererEngine = "latex"
	// RendererEngineBuiltin writes .md sources and renders the PDF in-process
	RendererEngineBuiltin RendererEngine = "builtin"
)

// RendererConfig contains document rendering configuration
type RendererConfig struct {
	Engine         RendererEngine `toml:"engine" validate:"oneof=latex builtin"`
	Compiler       string         `toml:"compiler"`      // External compiler executable (default: "pdflatex")
	CompilerArgs   []string       `toml:"compiler_args"` // Arguments placed before the source file
	Timeout        string         `toml:"timeout"`       // Compiler timeout (default: "2m")
	OutputDir      string         `toml:"output_dir" validate:"required"`
	Byproducts     []string       `toml:"byproducts"`      // Extensions removed after a successful compile
	VerifyArtifact bool           `toml:"verify_artifact"` // Check the compiled PDF is readable
}

// ReportConfig contains orchestration settings
type ReportConfig struct {
	Concurrency   int    `toml:"concurrency" validate:"min=1"`   // Maximum symbols processed at once
	LookbackDays  int    `toml:"lookback_days" validate:"min=1"` // Default range length when no dates are given
	PortfolioFile string `toml:"portfolio_file" validate:"required"`
	Schedule      string `toml:"schedule"` // Cron schedule for the schedule command
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
			File:       "logs/stockreport.log",
		},
		Market: MarketConfig{
			Provider: MarketProviderPolygon,
			Timeout:  "30s",
		},
		Polygon: PolygonConfig{
			BaseURL: "https://api.polygon.io",
		},
		EODHD: EODHDConfig{
			BaseURL:  "https://eodhd.com/api",
			Exchange: "US",
		},
		LLM: LLMConfig{
			Provider: LLMProviderClaude,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   1024,
			Timeout:     "2m",
			Temperature: 0.7,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			MaxTokens:   1024,
			Timeout:     "2m",
			Temperature: 0.7,
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			MaxTokens:   1024,
			Timeout:     "2m",
			Temperature: 0.7,
		},
		Completion: CompletionConfig{
			Model:     "claude-v1",
			MaxTokens: 500,
			Timeout:   "2m",
			Field:     "completion",
		},
		Renderer: RendererConfig{
			Engine:         RendererEngineLaTeX,
			Compiler:       "pdflatex",
			CompilerArgs:   []string{"-interaction=nonstopmode", "-halt-on-error"},
			Timeout:        "2m",
			OutputDir:      "reports",
			Byproducts:     []string{".aux", ".log", ".out"},
			VerifyArtifact: true,
		},
		Report: ReportConfig{
			Concurrency:   4,
			LookbackDays:  180,
			PortfolioFile: "portfolios.txt",
			Schedule:      "0 18 * * 1-5", // Weekdays after the US close
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied afterwards with ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Logging configuration
	if level := os.Getenv("STOCKREPORT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("STOCKREPORT_LOG_OUTPUT"); output != "" {
		if outputs := splitList(output); len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Market data configuration
	if provider := os.Getenv("STOCKREPORT_MARKET_PROVIDER"); provider != "" {
		config.Market.Provider = MarketProvider(provider)
	}
	if timeout := os.Getenv("STOCKREPORT_MARKET_TIMEOUT"); timeout != "" {
		config.Market.Timeout = timeout
	}
	if rateLimit := os.Getenv("STOCKREPORT_MARKET_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil {
			config.Market.RateLimit = rl
		}
	}
	config.Polygon.APIKey = firstEnv(config.Polygon.APIKey, "STOCKREPORT_POLYGON_API_KEY", "POLYGON_API_KEY")
	if baseURL := os.Getenv("STOCKREPORT_POLYGON_BASE_URL"); baseURL != "" {
		config.Polygon.BaseURL = baseURL
	}
	config.EODHD.APIKey = firstEnv(config.EODHD.APIKey, "STOCKREPORT_EODHD_API_KEY", "EODHD_API_KEY")
	if exchange := os.Getenv("STOCKREPORT_EODHD_EXCHANGE"); exchange != "" {
		config.EODHD.Exchange = exchange
	}

	// Narrative configuration
	if provider := os.Getenv("STOCKREPORT_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(provider)
	}
	config.Claude.APIKey = firstEnv(config.Claude.APIKey, "STOCKREPORT_CLAUDE_API_KEY", "ANTHROPIC_API_KEY")
	if model := os.Getenv("STOCKREPORT_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("STOCKREPORT_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("STOCKREPORT_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	config.Gemini.APIKey = firstEnv(config.Gemini.APIKey, "STOCKREPORT_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	if model := os.Getenv("STOCKREPORT_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	config.OpenAI.APIKey = firstEnv(config.OpenAI.APIKey, "STOCKREPORT_OPENAI_API_KEY", "OPENAI_API_KEY")
	if model := os.Getenv("STOCKREPORT_OPENAI_MODEL"); model != "" {
		config.OpenAI.Model = model
	}
	if url := os.Getenv("STOCKREPORT_COMPLETION_URL"); url != "" {
		config.Completion.URL = url
	}
	config.Completion.APIKey = firstEnv(config.Completion.APIKey, "STOCKREPORT_COMPLETION_API_KEY")

	// Renderer configuration
	if engine := os.Getenv("STOCKREPORT_RENDERER_ENGINE"); engine != "" {
		config.Renderer.Engine = RendererEngine(engine)
	}
	if compiler := os.Getenv("STOCKREPORT_RENDERER_COMPILER"); compiler != "" {
		config.Renderer.Compiler = compiler
	}
	if outputDir := os.Getenv("STOCKREPORT_RENDERER_OUTPUT_DIR"); outputDir != "" {
		config.Renderer.OutputDir = outputDir
	}

	// Report configuration
	if concurrency := os.Getenv("STOCKREPORT_REPORT_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Report.Concurrency = c
		}
	}
	if portfolioFile := os.Getenv("STOCKREPORT_PORTFOLIO_FILE"); portfolioFile != "" {
		config.Report.PortfolioFile = portfolioFile
	}
}

// firstEnv returns the value of the first set environment variable in names, or fallback.
// Names are listed in priority order.
func firstEnv(fallback string, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, concurrency int, outputDir string) {
	if concurrency > 0 {
		config.Report.Concurrency = concurrency
	}
	if outputDir != "" {
		config.Renderer.OutputDir = outputDir
	}
}

// Validate checks field constraints, duration strings and the report schedule.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	durations := map[string]string{
		"market.timeout":     c.Market.Timeout,
		"claude.timeout":     c.Claude.Timeout,
		"gemini.timeout":     c.Gemini.Timeout,
		"openai.timeout":     c.OpenAI.Timeout,
		"completion.timeout": c.Completion.Timeout,
		"renderer.timeout":   c.Renderer.Timeout,
	}
	for key, value := range durations {
		if _, err := ParseDuration(value, time.Second); err != nil {
			return fmt.Errorf("invalid configuration: %s: %w", key, err)
		}
	}

	if c.Report.Schedule != "" {
		if err := ValidateSchedule(c.Report.Schedule); err != nil {
			return fmt.Errorf("invalid configuration: report.schedule: %w", err)
		}
	}
	return nil
}

// ParseDuration parses a duration string, returning fallback for an empty value.
// Zero and negative durations are rejected since every external call must be bounded.
func ParseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration '%s': %w", value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration '%s' must be positive", value)
	}
	return d, nil
}

// ValidateSchedule validates a standard five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}
