package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/ternarybob/stockreport/internal/app"
	"github.com/ternarybob/stockreport/internal/common"
)

type reportCmd struct {
	selection   selection
	from        string
	to          string
	days        int
	concurrency int
	output      string
	provider    string
	llm         string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "generate performance reports for a set of symbols" }
func (*reportCmd) Usage() string {
	return `stockreport report [-portfolio N | -symbols A,B [-save]] [-from YYYY-MM-DD] [-to YYYY-MM-DD | -days N]

  Fetches daily prices, computes metrics, writes a narrative and renders one document per symbol.
  With neither -portfolio nor -symbols an interactive menu selects or creates a portfolio.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.selection.portfolio, "portfolio", 0, "Saved portfolio number (see 'portfolios')")
	f.StringVar(&c.selection.symbols, "symbols", "", "Comma or space separated symbols")
	f.BoolVar(&c.selection.save, "save", false, "Save -symbols as a new portfolio")
	f.StringVar(&c.from, "from", "", "First date of the range (YYYY-MM-DD)")
	f.StringVar(&c.to, "to", "", "Last date of the range (YYYY-MM-DD, defaults to today)")
	f.IntVar(&c.days, "days", 0, "Range length in days when -from is not given (defaults to report.lookback_days)")
	f.IntVar(&c.concurrency, "concurrency", 0, "Maximum symbols processed at once (overrides config)")
	f.StringVar(&c.output, "output", "", "Report output directory (overrides config)")
	f.StringVar(&c.provider, "provider", "", "Market data provider: polygon or eodhd (overrides config)")
	f.StringVar(&c.llm, "llm", "", "Narrative provider: claude, gemini, openai, completion or offline (overrides config)")
}

func (c *reportCmd) overrides(config *common.Config) {
	common.ApplyFlagOverrides(config, c.concurrency, c.output)
	if c.provider != "" {
		config.Market.Provider = common.MarketProvider(c.provider)
	}
	if c.llm != "" {
		config.LLM.Provider = common.LLMProvider(c.llm)
	}
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	config, logger, err := setup(c.overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	dateRange, err := resolveRange(time.Now(), c.from, c.to, c.days, config.Report.LookbackDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return subcommands.ExitFailure
	}

	symbols, err := c.selection.resolve(application.Portfolios, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	summary, err := application.Orchestrator.Run(ctx, symbols, dateRange)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	printMarkdown(summaryMarkdown(summary))
	return subcommands.ExitSuccess
}
