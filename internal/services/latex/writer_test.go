package latex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, `50\% of \$10 \& R\&D\_x \#1 \{a\} \textasciitilde{} \textasciicircum{} \textbackslash{}`,
		Escape(`50% of $10 & R&D_x #1 {a} ~ ^ \`))
	assert.Equal(t, `\textbullet{} item`, Escape("• item"))
}

func TestEscape_Glyphs(t *testing.T) {
	assert.Equal(t, `Momentum \textrightarrow{} positive, $\approx$ 2\% gain $\checkmark$`,
		Escape("Momentum → positive, ≈ 2% gain ✓"))
	assert.Equal(t, `$\leq$ 5 $\geq$ 1 $-$3`, Escape("≤ 5 ≥ 1 −3"))
	assert.Equal(t, "café – “Q3” … €5", Escape("café – “Q3” … €5"))
	assert.Equal(t, "Strong quarter ", Escape("Strong quarter 🚀"))
	assert.Equal(t, "a b", Escape("a\tb"))
}

func TestMarkdownToLaTeX_BracketedText(t *testing.T) {
	out, err := MarkdownToLaTeX("- [Note] revenue grew\n")
	require.NoError(t, err)
	assert.Contains(t, out, `\item{} [Note] revenue grew`)
	assert.NotContains(t, out, `\item [`)

	out, err = MarkdownToLaTeX("Price rose  \n[1] per filing\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Price rose\\\\{}\n[1] per filing")
}

func TestMarkdownToLaTeX_VerbatimDropsUnsetGlyphs(t *testing.T) {
	out, err := MarkdownToLaTeX("```\nup ✓ 🚀\n```\n")
	require.NoError(t, err)
	assert.Contains(t, out, "\\begin{verbatim}\nup  \n\\end{verbatim}")
}

func TestMarkdownToLaTeX(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		contains []string
	}{
		{
			name:     "headings",
			markdown: "## Overview\n\nText.\n\n### Detail\n",
			contains: []string{`\section*{Overview}`, "Text.\n", `\subsection*{Detail}`},
		},
		{
			name:     "bullet list",
			markdown: "- first\n- second 5%\n",
			contains: []string{"\\begin{itemize}\n\\item{} first\n\\item{} second 5\\%\n\\end{itemize}"},
		},
		{
			name:     "ordered list",
			markdown: "1. one\n2. two\n",
			contains: []string{`\begin{enumerate}`, `\item one`, `\end{enumerate}`},
		},
		{
			name:     "inline styles",
			markdown: "Up **strongly** and *briefly* in `AAPL_X`.\n",
			contains: []string{`\textbf{strongly}`, `\emph{briefly}`, `\texttt{AAPL\_X}`},
		},
		{
			name:     "html is dropped",
			markdown: "<div>raw</div>\n\nkept\n",
			contains: []string{"kept"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MarkdownToLaTeX(tt.markdown)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			assert.NotContains(t, out, "<div>")
		})
	}
}
