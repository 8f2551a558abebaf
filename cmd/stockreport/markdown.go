package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/ternarybob/stockreport/internal/models"
	"github.com/ternarybob/stockreport/internal/portfolio"
)

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		if out, err := renderer.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}

// summaryMarkdown formats a run summary as a markdown table in request order.
// Skipped symbols are listed after the outcomes.
func summaryMarkdown(summary *models.RunSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Report run %s\n\n", summary.ID)
	fmt.Fprintf(&b, "Range: **%s**\n\n", summary.Range)

	b.WriteString("| Symbol | Status | Stage | Detail | Duration |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, o := range summary.Outcomes {
		detail := o.DocumentPath
		if !o.Succeeded() {
			detail = o.Reason
			if o.NoData() {
				detail = "no data for range"
			}
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			o.Symbol, o.Status, o.Stage, tableCell(detail), o.Duration.Round(time.Millisecond))
	}
	for _, sym := range summary.Skipped() {
		fmt.Fprintf(&b, "| %s | skipped | %s | run cancelled | - |\n", sym, models.StagePending)
	}

	fmt.Fprintf(&b, "\n%d succeeded, %d failed, %d skipped",
		len(summary.Succeeded()), len(summary.Failed()), len(summary.Skipped()))
	if summary.Cancelled {
		b.WriteString(" (cancelled)")
	}
	b.WriteString("\n")
	return b.String()
}

// portfoliosMarkdown lists saved portfolios with their 1-based numbers.
func portfoliosMarkdown(path string, portfolios []portfolio.Portfolio) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolios (%s)\n\n", path)
	if len(portfolios) == 0 {
		b.WriteString("No saved portfolios.\n")
		return b.String()
	}
	b.WriteString("| # | Symbols |\n|---|---|\n")
	for i, p := range portfolios {
		fmt.Fprintf(&b, "| %d | %s |\n", i+1, strings.Join(p, ", "))
	}
	return b.String()
}

func tableCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
