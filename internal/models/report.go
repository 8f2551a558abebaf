package models

import (
	"errors"
	"time"
)

// Stage is a state of a per-symbol pipeline.
// Pipelines move Pending -> Fetching -> Extracting -> Summarizing -> Rendering -> Done,
// or stop at the stage that failed.
type Stage string

const (
	StagePending     Stage = "Pending"
	StageFetching    Stage = "Fetching"
	StageExtracting  Stage = "Extracting"
	StageSummarizing Stage = "Summarizing"
	StageRendering   Stage = "Rendering"
	StageDone        Stage = "Done"
)

// OutcomeStatus is the terminal status of one symbol's pipeline.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
)

// ReportOutcome is the result of one symbol's pipeline within a run.
type ReportOutcome struct {
	Symbol       string        `json:"symbol"`
	Status       OutcomeStatus `json:"status"`
	Stage        Stage         `json:"stage"` // StageDone on success, the failing stage otherwise
	DocumentPath string        `json:"document_path,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	Err          error         `json:"-"`
	Duration     time.Duration `json:"duration"`
}

// Succeeded reports whether the pipeline reached Done.
func (o ReportOutcome) Succeeded() bool {
	return o.Status == OutcomeSuccess
}

// NoData reports whether the pipeline failed because the provider returned no bars for the range.
func (o ReportOutcome) NoData() bool {
	return o.Status == OutcomeFailed && errors.Is(o.Err, ErrEmptySeries)
}

// Document is the input of a renderer: the narrative plus its structural metadata.
type Document struct {
	Symbol    string
	Narrative string
	Range     DateRange
}

// RunSummary is the return value of one orchestration run. It is never persisted.
type RunSummary struct {
	ID         string          `json:"id"`
	Range      DateRange       `json:"range"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Requested  []string        `json:"requested"`
	Outcomes   []ReportOutcome `json:"outcomes"`
	Cancelled  bool            `json:"cancelled"`
}

// Outcome returns the outcome recorded for symbol.
func (s *RunSummary) Outcome(symbol string) (ReportOutcome, bool) {
	for _, o := range s.Outcomes {
		if o.Symbol == symbol {
			return o, true
		}
	}
	return ReportOutcome{}, false
}

// Succeeded returns the successful outcomes in request order.
func (s *RunSummary) Succeeded() []ReportOutcome {
	return s.filter(OutcomeSuccess)
}

// Failed returns the failed outcomes in request order.
func (s *RunSummary) Failed() []ReportOutcome {
	return s.filter(OutcomeFailed)
}

// Skipped returns the requested symbols that were never scheduled because the run was cancelled.
func (s *RunSummary) Skipped() []string {
	seen := make(map[string]bool, len(s.Outcomes))
	for _, o := range s.Outcomes {
		seen[o.Symbol] = true
	}
	var skipped []string
	for _, sym := range s.Requested {
		if !seen[sym] {
			skipped = append(skipped, sym)
		}
	}
	return skipped
}

func (s *RunSummary) filter(status OutcomeStatus) []ReportOutcome {
	var out []ReportOutcome
	for _, o := range s.Outcomes {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}
