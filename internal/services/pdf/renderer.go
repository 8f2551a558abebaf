// Package pdf is the builtin document engine: reports are written as markdown sources
// and typeset to PDF in-process with fpdf, so no external toolchain is needed.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
	"github.com/ternarybob/stockreport/internal/interfaces"
	"github.com/ternarybob/stockreport/internal/models"
	"github.com/ternarybob/stockreport/internal/services/document"
)

const (
	sourceExt   = ".md"
	artifactExt = ".pdf"
)

// Compile-time assertion
var _ interfaces.DocumentRenderer = (*Renderer)(nil)

// Renderer implements interfaces.DocumentRenderer with the in-process converter.
type Renderer struct {
	layout         document.Layout
	converter      *Converter
	verifyArtifact bool
	logger         arbor.ILogger
}

// NewRenderer creates a builtin renderer from renderer configuration.
func NewRenderer(config *common.RendererConfig, clock document.Clock, logger arbor.ILogger) *Renderer {
	layout := document.NewLayout(config.OutputDir)
	if clock != nil {
		layout.Clock = clock
	}
	return &Renderer{
		layout:         layout,
		converter:      NewConverter(logger),
		verifyArtifact: config.VerifyArtifact,
		logger:         logger,
	}
}

// Source builds the markdown source for doc.
func Source(doc models.Document) []byte {
	return []byte(fmt.Sprintf("# %s Performance Summary\n\n*%s*\n\n%s",
		doc.Symbol, doc.Range.String(), document.NormalizeNarrative(doc.Narrative)))
}

// Render writes {SYMBOL}_summary.md and {SYMBOL}_summary.pdf into the run-date directory.
func (r *Renderer) Render(ctx context.Context, doc models.Document) (string, error) {
	dir, err := filepath.Abs(r.layout.Dir())
	if err != nil {
		return "", &models.RenderError{Kind: models.RenderIOFailure, Path: r.layout.Dir(), Err: err}
	}
	sourcePath := document.Path(dir, doc.Symbol, sourceExt)
	artifactPath := document.Path(dir, doc.Symbol, artifactExt)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &models.RenderError{Kind: models.RenderIOFailure, Path: dir, Err: err}
	}

	source := Source(doc)
	if err := os.WriteFile(sourcePath, source, 0644); err != nil {
		return "", &models.RenderError{Kind: models.RenderIOFailure, Path: sourcePath, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return "", &models.RenderError{Kind: models.RenderCompileFailed, Path: sourcePath, Err: err}
	}

	title := doc.Symbol + " Performance Summary"
	content, err := r.converter.ConvertMarkdownToPDF(string(source), title, doc.Range.To)
	if err != nil {
		return "", &models.RenderError{Kind: models.RenderCompileFailed, Path: sourcePath, Err: err}
	}

	if err := os.WriteFile(artifactPath, content, 0644); err != nil {
		return "", &models.RenderError{Kind: models.RenderIOFailure, Path: artifactPath, Err: err}
	}

	if r.verifyArtifact {
		pages, err := document.VerifyPDF(artifactPath)
		if err != nil {
			return "", &models.RenderError{Kind: models.RenderCompileFailed, Path: artifactPath, Err: err}
		}
		r.logger.Debug().Str("path", artifactPath).Int("pages", pages).Msg("Artifact verified")
	}

	return artifactPath, nil
}
