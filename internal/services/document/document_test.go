package document

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	layout := Layout{
		OutputDir: "reports",
		Clock:     func() time.Time { return time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC) },
	}

	dir := layout.Dir()
	assert.Equal(t, filepath.Join("reports", "2024-03-05"), dir)
	assert.Equal(t, filepath.Join(dir, "AAPL_summary.tex"), Path(dir, "AAPL", ".tex"))
	assert.Equal(t, "NASDAQ_3AMSFT_summary", Stem("NASDAQ:MSFT"))
	assert.Equal(t, "BRK.B_summary", Stem("BRK.B"))
	assert.Equal(t, "A_2FB_summary", Stem("A/B"))
	assert.Equal(t, "A__B_summary", Stem("A_B"))
}

func TestNormalizeNarrative(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bullets", "Points:\r\n• first\r\n•second\n  ◦ nested", "Points:\n- first\n- second\n  - nested\n"},
		{"dashes", "– one\n— two", "- one\n- two\n"},
		{"markdown untouched", "## Overview\n\n- kept\n* kept too", "## Overview\n\n- kept\n* kept too\n"},
		{"trailing space", "  text  \n\n\n", "text\n"},
		{"inline bullet kept", "up • down", "up • down\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeNarrative(tt.in))
		})
	}
}

func TestVerifyPDF_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0644))

	_, err := VerifyPDF(path)
	assert.Error(t, err)

	_, err = VerifyPDF(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestStem_DistinctSymbolsNeverCollide(t *testing.T) {
	symbols := []string{"BRK/B", "BRK_B", "BRK_2FB", "BRK.B", "BRK-B", "BRK:B", "BRK B", "BRK__B", "BRK_2F_B"}
	seen := make(map[string]string, len(symbols))
	for _, sym := range symbols {
		stem := Stem(sym)
		prev, dup := seen[stem]
		assert.False(t, dup, "%q and %q share stem %q", prev, sym, stem)
		seen[stem] = sym
	}
}
