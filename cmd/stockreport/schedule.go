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
	"github.com/ternarybob/stockreport/internal/models"
	"github.com/ternarybob/stockreport/internal/services/scheduler"
)

type scheduleCmd struct {
	selection selection
	cron      string
	days      int
	now       bool
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "run reports on a cron schedule until interrupted" }
func (*scheduleCmd) Usage() string {
	return `stockreport schedule [-portfolio N | -symbols A,B] [-cron "0 18 * * 1-5"] [-days N] [-now]

  Runs the report for the selected symbols on report.schedule. Each run covers the
  lookback window ending on the day it fires.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.selection.portfolio, "portfolio", 1, "Saved portfolio number")
	f.StringVar(&c.selection.symbols, "symbols", "", "Comma or space separated symbols (overrides -portfolio)")
	f.StringVar(&c.cron, "cron", "", "Cron schedule (overrides report.schedule)")
	f.IntVar(&c.days, "days", 0, "Range length in days (defaults to report.lookback_days)")
	f.BoolVar(&c.now, "now", false, "Run once immediately before waiting for the schedule")
}

func (c *scheduleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.selection.symbols == "" && c.selection.portfolio < 1 {
		fmt.Fprintln(os.Stderr, "Error: schedule needs -portfolio N or -symbols")
		return subcommands.ExitUsageError
	}

	config, logger, err := setup(func(config *common.Config) {
		if c.cron != "" {
			config.Report.Schedule = c.cron
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if config.Report.Schedule == "" {
		fmt.Fprintln(os.Stderr, "Error: no schedule configured (set report.schedule or -cron)")
		return subcommands.ExitUsageError
	}

	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return subcommands.ExitFailure
	}

	days := c.days
	if days <= 0 {
		days = config.Report.LookbackDays
	}

	job := func(jobCtx context.Context) error {
		// Portfolios are re-read on every tick so edits apply to the next run.
		symbols, err := c.selection.resolve(application.Portfolios, nil, nil)
		if err != nil {
			return err
		}
		summary, err := application.Orchestrator.Run(jobCtx, symbols, models.LookbackRange(time.Now(), days))
		if err != nil {
			return err
		}
		printMarkdown(summaryMarkdown(summary))
		if failed := len(summary.Failed()); failed > 0 {
			return fmt.Errorf("%d of %d reports failed", failed, len(summary.Requested))
		}
		return nil
	}

	sched := scheduler.NewService(logger)
	if err := sched.RegisterJob("report", config.Report.Schedule, job); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err := sched.Start(); err != nil {
		logger.Error().Err(err).Msg("Failed to start scheduler")
		return subcommands.ExitFailure
	}
	if c.now {
		go sched.TriggerJob("report")
	}

	logger.Info().Str("schedule", config.Report.Schedule).Msg("Scheduler ready - Press Ctrl+C to stop")
	<-ctx.Done()
	logger.Info().Msg("Interrupt signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		logger.Error().Err(err).Msg("Scheduler shutdown failed")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
