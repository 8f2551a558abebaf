// Package latex renders report documents as LaTeX sources compiled by an external
// toolchain such as pdflatex.
package latex

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
	"github.com/ternarybob/stockreport/internal/interfaces"
	"github.com/ternarybob/stockreport/internal/models"
	"github.com/ternarybob/stockreport/internal/services/document"
)

const (
	sourceExt   = ".tex"
	artifactExt = ".pdf"

	// maxOutputTail caps how much compiler output is kept on a CompileFailed error.
	maxOutputTail = 2048
)

//go:embed templates/report.tex.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.tex.tmpl").Delims("<<", ">>").ParseFS(templateFS, "templates/report.tex.tmpl"),
)

// Compile-time assertion
var _ interfaces.DocumentRenderer = (*Renderer)(nil)

// Renderer writes {SYMBOL}_summary.tex and compiles it to PDF with an external compiler.
type Renderer struct {
	layout         document.Layout
	compiler       string
	compilerArgs   []string
	timeout        time.Duration
	byproducts     []string
	verifyArtifact bool
	logger         arbor.ILogger
}

// NewRenderer creates a LaTeX renderer from renderer configuration.
func NewRenderer(config *common.RendererConfig, clock document.Clock, logger arbor.ILogger) (*Renderer, error) {
	timeout, err := common.ParseDuration(config.Timeout, 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid renderer timeout: %w", err)
	}

	compiler := config.Compiler
	if compiler == "" {
		compiler = "pdflatex"
	}

	layout := document.NewLayout(config.OutputDir)
	if clock != nil {
		layout.Clock = clock
	}

	return &Renderer{
		layout:         layout,
		compiler:       compiler,
		compilerArgs:   config.CompilerArgs,
		timeout:        timeout,
		byproducts:     config.Byproducts,
		verifyArtifact: config.VerifyArtifact,
		logger:         logger,
	}, nil
}

// Source builds the complete LaTeX source for doc. It depends only on doc, so identical
// inputs always produce identical bytes.
func Source(doc models.Document) ([]byte, error) {
	body, err := MarkdownToLaTeX(document.NormalizeNarrative(doc.Narrative))
	if err != nil {
		return nil, fmt.Errorf("failed to convert narrative: %w", err)
	}

	var buf bytes.Buffer
	err = reportTemplate.Execute(&buf, struct {
		Title  string
		Period string
		Body   string
	}{
		Title:  Escape(doc.Symbol + " Performance Summary"),
		Period: Escape(doc.Range.String()),
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute report template: %w", err)
	}
	return buf.Bytes(), nil
}

// Render writes the source into the run-date directory, compiles it and removes byproducts.
// On a failed compile the byproducts are left in place for inspection.
func (r *Renderer) Render(ctx context.Context, doc models.Document) (string, error) {
	dir, err := filepath.Abs(r.layout.Dir())
	if err != nil {
		return "", &models.RenderError{Kind: models.RenderIOFailure, Path: r.layout.Dir(), Err: err}
	}
	sourcePath := document.Path(dir, doc.Symbol, sourceExt)
	artifactPath := document.Path(dir, doc.Symbol, artifactExt)

	source, err := Source(doc)
	if err != nil {
		return "", &models.RenderError{Kind: models.RenderIOFailure, Path: sourcePath, Err: err}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &models.RenderError{Kind: models.RenderIOFailure, Path: dir, Err: err}
	}
	if err := os.WriteFile(sourcePath, source, 0644); err != nil {
		return "", &models.RenderError{Kind: models.RenderIOFailure, Path: sourcePath, Err: err}
	}

	if err := r.compile(ctx, dir, sourcePath); err != nil {
		return "", err
	}

	if _, err := os.Stat(artifactPath); err != nil {
		return "", &models.RenderError{Kind: models.RenderCompileFailed, Path: artifactPath,
			Err: fmt.Errorf("compiler produced no artifact: %w", err)}
	}

	if r.verifyArtifact {
		pages, err := document.VerifyPDF(artifactPath)
		if err != nil {
			return "", &models.RenderError{Kind: models.RenderCompileFailed, Path: artifactPath, Err: err}
		}
		r.logger.Debug().Str("path", artifactPath).Int("pages", pages).Msg("Artifact verified")
	}

	r.cleanup(dir, doc.Symbol)

	return artifactPath, nil
}

// compile runs the compiler with a bounded wait. Any failure, including a timeout, is CompileFailed.
func (r *Renderer) compile(ctx context.Context, dir, sourcePath string) error {
	compileCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := append([]string{}, r.compilerArgs...)
	args = append(args, "-output-directory", dir, sourcePath)

	cmd := exec.CommandContext(compileCtx, r.compiler, args...)
	cmd.Dir = dir
	cmd.WaitDelay = 5 * time.Second
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	r.logger.Debug().
		Str("compiler", r.compiler).
		Strs("args", args).
		Msg("Compiling document")

	startTime := time.Now()
	err := cmd.Run()
	if err == nil {
		r.logger.Debug().
			Str("source", sourcePath).
			Dur("duration", time.Since(startTime)).
			Msg("Document compiled")
		return nil
	}

	if ctxErr := compileCtx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("compiler timed out after %s: %w", r.timeout, ctxErr)
		} else {
			err = fmt.Errorf("compile aborted: %w", ctxErr)
		}
	}

	return &models.RenderError{
		Kind:   models.RenderCompileFailed,
		Path:   sourcePath,
		Output: tail(output.String(), maxOutputTail),
		Err:    err,
	}
}

// cleanup removes compiler byproducts sharing the document stem. Failures are logged only.
func (r *Renderer) cleanup(dir, symbol string) {
	for _, ext := range r.byproducts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		path := document.Path(dir, symbol, ext)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove compiler byproduct")
		}
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

