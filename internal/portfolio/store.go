// Package portfolio persists named symbol lists as lines of a plain text file.
//
// Each line is one portfolio. Symbols are separated by commas or whitespace, so files written
// by hand with spaces and files written by Append with commas both load.
package portfolio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/ternarybob/stockreport/internal/common"
)

// Portfolio is an ordered list of canonical symbols.
type Portfolio []string

// String renders the portfolio the way it is written to disk.
func (p Portfolio) String() string {
	return strings.Join(p, ",")
}

// Store reads and appends portfolios in the file at Path.
type Store struct {
	Path string

	mu sync.Mutex
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load returns every saved portfolio in file order. A missing file is an empty list.
// Blank lines are ignored; symbols are normalised and de-duplicated per line.
func (s *Store) Load() ([]Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio file %s: %w", s.Path, err)
	}

	var portfolios []Portfolio
	for _, line := range strings.Split(string(data), "\n") {
		if p := ParseLine(line); len(p) > 0 {
			portfolios = append(portfolios, p)
		}
	}
	return portfolios, nil
}

// Get returns the portfolio at the 1-based position n, as listed by Load.
func (s *Store) Get(n int) (Portfolio, error) {
	portfolios, err := s.Load()
	if err != nil {
		return nil, err
	}
	if n < 1 || n > len(portfolios) {
		return nil, fmt.Errorf("portfolio %d does not exist (%d saved)", n, len(portfolios))
	}
	return portfolios[n-1], nil
}

// Append writes p as one comma-joined line at the end of the file, creating it if needed.
func (s *Store) Append(p Portfolio) error {
	p = Portfolio(common.NormalizeSymbols(p))
	if len(p) == 0 {
		return fmt.Errorf("portfolio has no symbols")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create portfolio directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open portfolio file %s: %w", s.Path, err)
	}
	if _, err := f.WriteString(p.String() + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("failed to write portfolio: %w", err)
	}
	return f.Close()
}

// ParseLine splits a line of symbols on commas and whitespace.
func ParseLine(line string) Portfolio {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	return Portfolio(common.NormalizeSymbols(fields))
}
