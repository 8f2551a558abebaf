package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the resolved providers
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("StockReport", GetVersion())

	logger.Debug().
		Str("market_provider", string(config.Market.Provider)).
		Str("llm_provider", string(config.LLM.Provider)).
		Str("renderer_engine", string(config.Renderer.Engine)).
		Int("concurrency", config.Report.Concurrency).
		Msg("Resolved configuration (sanitized)")
}
