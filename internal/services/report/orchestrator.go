// Package report runs the per-symbol report pipeline across a set of symbols.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
	"github.com/ternarybob/stockreport/internal/interfaces"
	"github.com/ternarybob/stockreport/internal/models"
	"github.com/ternarybob/stockreport/internal/services/metrics"
)

// ErrNoSymbols is returned by Run when no symbol survives normalisation.
var ErrNoSymbols = errors.New("no symbols to report on")

// Orchestrator drives fetch, extract, summarize and render for each symbol of a run.
// Pipelines are independent: a failing symbol never affects its siblings.
type Orchestrator struct {
	gateway     interfaces.MarketDataGateway
	narrator    interfaces.NarrativeService
	renderer    interfaces.DocumentRenderer
	concurrency int
	logger      arbor.ILogger
	now         func() time.Time
}

// NewOrchestrator creates an orchestrator running at most concurrency pipelines at once.
// A concurrency below one is treated as one.
func NewOrchestrator(
	gateway interfaces.MarketDataGateway,
	narrator interfaces.NarrativeService,
	renderer interfaces.DocumentRenderer,
	concurrency int,
	logger arbor.ILogger,
) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		gateway:     gateway,
		narrator:    narrator,
		renderer:    renderer,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// collector gathers outcomes from concurrent pipelines.
type collector struct {
	mu       sync.Mutex
	outcomes []models.ReportOutcome
}

func (c *collector) add(outcome models.ReportOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
}

func (c *collector) ordered(requested []string) []models.ReportOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := make(map[string]int, len(requested))
	for i, sym := range requested {
		index[sym] = i
	}
	out := make([]models.ReportOutcome, len(c.outcomes))
	copy(out, c.outcomes)
	sort.SliceStable(out, func(i, j int) bool {
		return index[out[i].Symbol] < index[out[j].Symbol]
	})
	return out
}

// Run reports on every symbol over dateRange and returns the run summary.
// The error is non-nil only for invalid arguments. Per-symbol failures are outcomes.
// Cancelling ctx stops scheduling; symbols never scheduled are listed by RunSummary.Skipped.
func (o *Orchestrator) Run(ctx context.Context, symbols []string, dateRange models.DateRange) (*models.RunSummary, error) {
	requested := common.NormalizeSymbols(symbols)
	if len(requested) == 0 {
		return nil, ErrNoSymbols
	}
	if err := dateRange.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report range: %w", err)
	}

	summary := &models.RunSummary{
		ID:        common.NewRunID(),
		Range:     dateRange,
		StartedAt: o.now(),
		Requested: requested,
	}
	logger := o.logger.WithCorrelationId(summary.ID)

	logger.Info().
		Strs("symbols", requested).
		Str("range", dateRange.String()).
		Int("concurrency", o.concurrency).
		Str("provider", o.gateway.Name()).
		Str("narrator", o.narrator.Name()).
		Msg("Starting report run")

	results := &collector{}
	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

schedule:
	for _, symbol := range requested {
		select {
		case <-ctx.Done():
			break schedule
		case sem <- struct{}{}:
		}
		// Both cases may be ready at once; a cancelled run must not start new work.
		if ctx.Err() != nil {
			<-sem
			break schedule
		}

		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			results.add(o.runPipeline(ctx, logger, symbol, dateRange))
		}(symbol)
	}

	wg.Wait()

	summary.Outcomes = results.ordered(requested)
	summary.Cancelled = ctx.Err() != nil
	summary.FinishedAt = o.now()

	event := logger.Info()
	if summary.Cancelled {
		event = logger.Warn()
	}
	event.
		Int("succeeded", len(summary.Succeeded())).
		Int("failed", len(summary.Failed())).
		Int("skipped", len(summary.Skipped())).
		Bool("cancelled", summary.Cancelled).
		Dur("duration", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("Report run finished")

	return summary, nil
}

// runPipeline executes the stages for one symbol. It never panics.
func (o *Orchestrator) runPipeline(ctx context.Context, logger arbor.ILogger, symbol string, dateRange models.DateRange) (outcome models.ReportOutcome) {
	start := o.now()
	stage := models.StagePending

	fail := func(err error) models.ReportOutcome {
		return models.ReportOutcome{
			Symbol:   symbol,
			Status:   models.OutcomeFailed,
			Stage:    stage,
			Reason:   err.Error(),
			Err:      err,
			Duration: o.now().Sub(start),
		}
	}

	defer common.RecoverPanic(logger, "pipeline:"+symbol, func(err *common.PanicError) {
		outcome = fail(err)
		o.logOutcome(logger, outcome)
	})

	advance := func(next models.Stage) error {
		stage = next
		logger.Debug().Str("symbol", symbol).Str("stage", string(stage)).Msg("Pipeline stage")
		return ctx.Err()
	}

	if err := advance(models.StageFetching); err != nil {
		return o.finish(logger, fail(err))
	}
	series, err := o.gateway.Fetch(ctx, symbol, dateRange)
	if err != nil {
		return o.finish(logger, fail(err))
	}

	if err := advance(models.StageExtracting); err != nil {
		return o.finish(logger, fail(err))
	}
	computed, err := metrics.Compute(series)
	if err != nil {
		return o.finish(logger, fail(err))
	}

	if err := advance(models.StageSummarizing); err != nil {
		return o.finish(logger, fail(err))
	}
	narrative, err := o.narrator.Summarize(ctx, symbol, computed, dateRange)
	if err != nil {
		return o.finish(logger, fail(err))
	}

	if err := advance(models.StageRendering); err != nil {
		return o.finish(logger, fail(err))
	}
	path, err := o.renderer.Render(ctx, models.Document{
		Symbol:    symbol,
		Narrative: narrative,
		Range:     dateRange,
	})
	if err != nil {
		return o.finish(logger, fail(err))
	}

	stage = models.StageDone
	return o.finish(logger, models.ReportOutcome{
		Symbol:       symbol,
		Status:       models.OutcomeSuccess,
		Stage:        models.StageDone,
		DocumentPath: path,
		Duration:     o.now().Sub(start),
	})
}

func (o *Orchestrator) finish(logger arbor.ILogger, outcome models.ReportOutcome) models.ReportOutcome {
	o.logOutcome(logger, outcome)
	return outcome
}

func (o *Orchestrator) logOutcome(logger arbor.ILogger, outcome models.ReportOutcome) {
	if outcome.Succeeded() {
		logger.Info().
			Str("symbol", outcome.Symbol).
			Str("document", outcome.DocumentPath).
			Dur("duration", outcome.Duration).
			Msg("Report generated")
		return
	}

	msg := "Report failed"
	if outcome.NoData() {
		msg = "No market data for range"
	}
	logger.Warn().
		Str("symbol", outcome.Symbol).
		Str("stage", string(outcome.Stage)).
		Err(outcome.Err).
		Dur("duration", outcome.Duration).
		Msg(msg)
}
