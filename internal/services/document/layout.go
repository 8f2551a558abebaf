// Package document holds what both renderer engines share: the on-disk report layout,
// narrative normalisation and artifact verification.
package document

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/stockreport/internal/models"
)

// Clock returns the current time. Renderers take one so the run-date directory is testable.
type Clock func() time.Time

// Layout places report files under {OutputDir}/{run-date}/{SYMBOL}_summary.{ext}.
type Layout struct {
	OutputDir string
	Clock     Clock
}

// NewLayout creates a layout rooted at outputDir using the wall clock.
func NewLayout(outputDir string) Layout {
	return Layout{OutputDir: outputDir, Clock: time.Now}
}

// Dir returns the date-stamped directory for reports written now.
func (l Layout) Dir() string {
	clock := l.Clock
	if clock == nil {
		clock = time.Now
	}
	return filepath.Join(l.OutputDir, clock().Format(models.DateLayout))
}

// Stem returns the file base name shared by a report's source, artifact and byproducts.
func Stem(symbol string) string {
	return sanitize(symbol) + "_summary"
}

// Path returns dir/{SYMBOL}_summary{ext}; ext includes the leading dot.
func Path(dir, symbol, ext string) string {
	return filepath.Join(dir, Stem(symbol)+ext)
}

// sanitize keeps characters that are safe in file names on every platform and
// escapes the rest, so distinct symbols never share a stem: "_" becomes "__" and
// any other byte becomes "_" plus two hex digits ("A/B" is "A_2FB").
func sanitize(symbol string) string {
	var b strings.Builder
	for _, c := range []byte(strings.TrimSpace(symbol)) {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '-':
			b.WriteByte(c)
		case c == '_':
			b.WriteString("__")
		default:
			fmt.Fprintf(&b, "_%02X", c)
		}
	}
	return b.String()
}
