package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/stockreport/internal/models"
	"github.com/ternarybob/stockreport/internal/portfolio"
)

// selection describes how the symbols of a run are chosen.
type selection struct {
	portfolio int
	symbols   string
	save      bool
}

// resolve returns the symbols to report on. With neither -symbols nor -portfolio the
// interactive menu runs on in/out.
func (s selection) resolve(store *portfolio.Store, in io.Reader, out io.Writer) (portfolio.Portfolio, error) {
	switch {
	case s.symbols != "":
		p := portfolio.ParseLine(s.symbols)
		if len(p) == 0 {
			return nil, fmt.Errorf("-symbols has no symbols")
		}
		if s.save {
			if err := store.Append(p); err != nil {
				return nil, err
			}
		}
		return p, nil

	case s.portfolio > 0:
		return store.Get(s.portfolio)

	default:
		return runMenu(store, in, out)
	}
}

// runMenu asks the user to pick a saved portfolio ("1") or enter a new one ("2").
// New portfolios are read one symbol per line until a blank line, then saved.
func runMenu(store *portfolio.Store, in io.Reader, out io.Writer) (portfolio.Portfolio, error) {
	scanner := bufio.NewScanner(in)
	readLine := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	fmt.Fprintln(out, "Press '1' to review existing portfolios or '2' to create a new one:")
	choice, _ := readLine()

	switch choice {
	case "1":
		portfolios, err := store.Load()
		if err != nil {
			return nil, err
		}
		if len(portfolios) == 0 {
			return nil, fmt.Errorf("no saved portfolios in %s", store.Path)
		}
		fmt.Fprintln(out, "Existing portfolios:")
		for i, p := range portfolios {
			fmt.Fprintf(out, "%d: %s\n", i+1, p)
		}
		fmt.Fprintln(out, "Enter the portfolio number you would like to select:")
		line, _ := readLine()
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("invalid portfolio number %q", line)
		}
		return store.Get(n)

	case "2":
		fmt.Fprintln(out, "Enter the stock symbols for your portfolio (press Enter after each symbol, and press Enter again when done):")
		var symbols []string
		for {
			line, ok := readLine()
			if !ok || line == "" {
				break
			}
			symbols = append(symbols, line)
		}
		p := portfolio.Portfolio(symbols)
		if err := store.Append(p); err != nil {
			return nil, err
		}
		fmt.Fprintln(out, "Portfolio saved successfully!")
		return portfolio.ParseLine(strings.Join(symbols, ",")), nil

	default:
		return nil, fmt.Errorf("invalid menu choice %q", choice)
	}
}

// resolveRange builds the report range from -from/-to/-days. Without -to the range ends
// today; without -from it starts days (or defaultDays) before the end.
func resolveRange(now time.Time, from, to string, days, defaultDays int) (models.DateRange, error) {
	end := models.TruncateDate(now)
	if to != "" {
		t, err := time.Parse(models.DateLayout, to)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("invalid -to date %q: %w", to, err)
		}
		end = t
	}

	if days <= 0 {
		days = defaultDays
	}
	start := end.AddDate(0, 0, -days)
	if from != "" {
		f, err := time.Parse(models.DateLayout, from)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("invalid -from date %q: %w", from, err)
		}
		start = f
	}

	dateRange := models.NewDateRange(start, end)
	return dateRange, dateRange.Validate()
}
