package latex

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// latexReplacer escapes characters with special meaning in LaTeX text mode.
var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`$`, `\$`,
	`&`, `\&`,
	`%`, `\%`,
	`#`, `\#`,
	`_`, `\_`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
	`<`, `\textless{}`,
	`>`, `\textgreater{}`,
	`|`, `\textbar{}`,
	`•`, `\textbullet{}`,
	`→`, `\textrightarrow{}`,
	`←`, `\textleftarrow{}`,
	`↑`, `\textuparrow{}`,
	`↓`, `\textdownarrow{}`,
	`≈`, `$\approx$`,
	`≤`, `$\leq$`,
	`≥`, `$\geq$`,
	`≠`, `$\neq$`,
	`−`, `$-$`,
	`∞`, `$\infty$`,
	`Δ`, `$\Delta$`,
	`✓`, `$\checkmark$`,
	`✔`, `$\checkmark$`,
	`✗`, `$\times$`,
	`✘`, `$\times$`,
)

// typesetPunctuation lists the runes above Latin Extended-A that utf8 inputenc
// sets with T1 and textcomp.
var typesetPunctuation = map[rune]bool{
	'–': true, '—': true, '‘': true, '’': true, '‚': true, '“': true, '”': true, '„': true,
	'†': true, '‡': true, '…': true, '‰': true, '‹': true, '›': true, '€': true, '™': true,
}

// Escape returns s with LaTeX special characters escaped.
// Runes the report template cannot typeset are dropped, since inputenc
// aborts the whole compile on the first one.
func Escape(s string) string {
	return strings.Map(settable, latexReplacer.Replace(s))
}

func settable(r rune) rune {
	switch {
	case r == '\t':
		return ' '
	case r < 0x20 && r != '\n', r >= 0x7F && r < 0xA0:
		return -1
	case r == 'ĸ', r == 'ŉ', r == 'ſ':
		return -1
	case r <= 0x17F:
		return r
	case typesetPunctuation[r]:
		return r
	default:
		return -1
	}
}

// MarkdownToLaTeX converts narrative markdown into a LaTeX body fragment.
// Headings become unnumbered sections, lists become itemize/enumerate environments.
func MarkdownToLaTeX(markdown string) (string, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	w := &latexWriter{source: source}
	if err := ast.Walk(doc, w.walk); err != nil {
		return "", err
	}
	return strings.TrimSpace(w.buf.String()) + "\n", nil
}

type latexWriter struct {
	buf    bytes.Buffer
	source []byte
}

func (w *latexWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			w.buf.WriteString(headingCommand(node.Level) + "{")
		} else {
			w.buf.WriteString("}\n\n")
		}
	case *ast.Paragraph:
		if !entering {
			w.buf.WriteString("\n\n")
		}
	case *ast.TextBlock:
		if !entering {
			w.buf.WriteString("\n")
		}
	case *ast.Text:
		if entering {
			w.buf.WriteString(Escape(string(node.Segment.Value(w.source))))
			switch {
			case node.HardLineBreak():
				// \\ would read a following "[" as its length argument
				w.buf.WriteString("\\\\{}\n")
			case node.SoftLineBreak():
				w.buf.WriteString("\n")
			}
		}
	case *ast.String:
		if entering {
			w.buf.WriteString(Escape(string(node.Value)))
		}
	case *ast.Emphasis:
		if entering {
			if node.Level == 2 {
				w.buf.WriteString(`\textbf{`)
			} else {
				w.buf.WriteString(`\emph{`)
			}
		} else {
			w.buf.WriteString("}")
		}
	case *ast.CodeSpan:
		if entering {
			w.buf.WriteString(`\texttt{`)
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					w.buf.WriteString(Escape(string(t.Segment.Value(w.source))))
				}
			}
			w.buf.WriteString("}")
			return ast.WalkSkipChildren, nil
		}
	case *ast.List:
		env := "itemize"
		if node.IsOrdered() {
			env = "enumerate"
		}
		if entering {
			w.buf.WriteString(`\begin{` + env + "}\n")
		} else {
			w.buf.WriteString(`\end{` + env + "}\n\n")
		}
	case *ast.ListItem:
		if entering {
			// The empty group keeps a leading "[" from becoming the item label
			w.buf.WriteString(`\item{} `)
		}
	case *ast.Blockquote:
		if entering {
			w.buf.WriteString("\\begin{quote}\n")
		} else {
			w.buf.WriteString("\\end{quote}\n\n")
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			w.writeVerbatim(n.Lines())
			return ast.WalkSkipChildren, nil
		}
	case *ast.ThematicBreak:
		if entering {
			w.buf.WriteString("\\noindent\\rule{\\linewidth}{0.4pt}\n\n")
		}
	case *ast.AutoLink:
		if entering {
			w.buf.WriteString(Escape(string(node.URL(w.source))))
			return ast.WalkSkipChildren, nil
		}
	case *ast.HTMLBlock, *ast.RawHTML:
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (w *latexWriter) writeVerbatim(lines *text.Segments) {
	w.buf.WriteString("\\begin{verbatim}\n")
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		w.buf.WriteString(strings.Map(settable, string(line.Value(w.source))))
	}
	w.buf.WriteString("\\end{verbatim}\n\n")
}

func headingCommand(level int) string {
	switch level {
	case 1, 2:
		return `\section*`
	case 3:
		return `\subsection*`
	default:
		return `\paragraph`
	}
}
