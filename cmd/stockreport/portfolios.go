package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/ternarybob/stockreport/internal/portfolio"
)

type portfoliosCmd struct {
	add string
}

func (*portfoliosCmd) Name() string     { return "portfolios" }
func (*portfoliosCmd) Synopsis() string { return "list or add saved portfolios" }
func (*portfoliosCmd) Usage() string {
	return `stockreport portfolios [-add A,B,C]

  Lists saved portfolios with the numbers accepted by 'report -portfolio'.
`
}

func (c *portfoliosCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.add, "add", "", "Save a new portfolio of comma or space separated symbols")
}

func (c *portfoliosCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	config, logger, err := setup(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	store := portfolio.NewStore(config.Report.PortfolioFile)
	if c.add != "" {
		p := portfolio.ParseLine(c.add)
		if err := store.Append(p); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		logger.Info().Strs("symbols", p).Str("file", store.Path).Msg("Portfolio saved")
	}

	portfolios, err := store.Load()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load portfolios")
		return subcommands.ExitFailure
	}

	printMarkdown(portfoliosMarkdown(store.Path, portfolios))
	return subcommands.ExitSuccess
}
