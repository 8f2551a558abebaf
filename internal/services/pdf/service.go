package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Converter typesets markdown into PDF bytes in-process.
type Converter struct {
	logger arbor.ILogger
}

// NewConverter creates a new markdown to PDF converter
func NewConverter(logger arbor.ILogger) *Converter {
	return &Converter{
		logger: logger,
	}
}

// ConvertMarkdownToPDF converts markdown content to a PDF byte slice.
// Title and created are stored as document metadata; the visible title is expected in the markdown.
func (c *Converter) ConvertMarkdownToPDF(markdown, title string, created time.Time) ([]byte, error) {
	c.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Converting markdown to PDF")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(title, true)
	pdf.SetCreator("stockreport", true)
	// Identical input must give identical bytes
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 10)

	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	w := &pdfWriter{
		pdf:       pdf,
		source:    source,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
		size:      10,
	}

	if err := ast.Walk(doc, w.walk); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	c.logger.Debug().Int("pdf_size", buf.Len()).Msg("PDF generated successfully")
	return buf.Bytes(), nil
}

// pdfWriter walks a goldmark AST and draws it with fpdf core fonts.
type pdfWriter struct {
	pdf       *fpdf.Fpdf
	source    []byte
	translate func(string) string // UTF-8 to the cp1252 encoding of the core fonts
	size      float64
	bold      bool
	italic    bool
	listLevel int
	ordered   []int // next ordinal per open list; 0 for bullet lists
}

func (w *pdfWriter) updateFont() {
	style := ""
	if w.bold {
		style += "B"
	}
	if w.italic {
		style += "I"
	}
	w.pdf.SetFont("Arial", style, w.size)
}

func (w *pdfWriter) write(s string) {
	w.pdf.Write(5, w.translate(s))
}

func (w *pdfWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			w.pdf.Ln(4)
			size := 10.0
			switch node.Level {
			case 1:
				size = 16
			case 2:
				size = 13
			case 3:
				size = 11
			}
			w.pdf.SetFont("Arial", "B", size)
		} else {
			w.pdf.Ln(8)
			w.updateFont()
		}
	case *ast.Paragraph:
		if !entering {
			w.pdf.Ln(7)
		}
	case *ast.Text:
		if entering {
			w.write(string(node.Segment.Value(w.source)))
			if node.SoftLineBreak() {
				w.write(" ")
			}
			if node.HardLineBreak() {
				w.pdf.Ln(5)
			}
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			w.bold = entering
		} else {
			w.italic = entering
		}
		w.updateFont()
	case *ast.CodeSpan:
		if entering {
			w.pdf.SetFont("Courier", "", w.size)
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					w.write(string(t.Segment.Value(w.source)))
				}
			}
			w.updateFont()
			return ast.WalkSkipChildren, nil
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			w.codeBlock(n.Lines())
			return ast.WalkSkipChildren, nil
		}
	case *ast.List:
		if entering {
			w.listLevel++
			start := 0
			if node.IsOrdered() {
				start = node.Start
			}
			w.ordered = append(w.ordered, start)
		} else {
			w.listLevel--
			w.ordered = w.ordered[:len(w.ordered)-1]
			if w.listLevel == 0 {
				w.pdf.Ln(7)
			}
		}
	case *ast.ListItem:
		if entering {
			w.listItem()
		}
	case *ast.ThematicBreak:
		if entering {
			w.pdf.Ln(2)
			w.pdf.Line(15, w.pdf.GetY(), 195, w.pdf.GetY())
			w.pdf.Ln(2)
		}
	case *extast.Table:
		if entering {
			w.table(node)
			return ast.WalkSkipChildren, nil
		}
	case *ast.HTMLBlock, *ast.RawHTML:
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (w *pdfWriter) listItem() {
	// Start each item on its own line so items never overlap
	w.pdf.Ln(5)
	w.pdf.SetX(15 + float64(w.listLevel)*5)

	last := len(w.ordered) - 1
	if w.ordered[last] > 0 {
		w.write(fmt.Sprintf("%d. ", w.ordered[last]))
		w.ordered[last]++
		return
	}
	w.write("- ")
}

func (w *pdfWriter) codeBlock(lines *text.Segments) {
	w.pdf.Ln(2)
	w.pdf.SetFont("Courier", "", 9)
	w.pdf.SetFillColor(245, 245, 245)
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		w.pdf.MultiCell(0, 5, w.translate(strings.TrimRight(string(line.Value(w.source)), "\n")), "", "L", true)
	}
	w.pdf.SetFillColor(255, 255, 255)
	w.updateFont()
	w.pdf.Ln(2)
}

// table draws a table with equal column widths; the header row is shaded.
func (w *pdfWriter) table(n *extast.Table) {
	var rows [][]string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		var row []string
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			row = append(row, w.translate(strings.TrimSpace(cellText(cell, w.source))))
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	width := 180.0 / float64(len(rows[0]))
	w.pdf.Ln(2)
	for i, row := range rows {
		fill := i == 0
		if fill {
			w.pdf.SetFont("Arial", "B", 9)
			w.pdf.SetFillColor(230, 230, 230)
		} else {
			w.pdf.SetFont("Arial", "", 9)
		}
		for _, cell := range row {
			w.pdf.CellFormat(width, 6, cell, "1", 0, "L", fill, 0, "")
		}
		w.pdf.Ln(-1)
	}
	w.pdf.SetFillColor(255, 255, 255)
	w.updateFont()
	w.pdf.Ln(3)
}

func cellText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); entering && ok {
			b.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
