package document

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// VerifyPDF checks the artifact at path parses as a PDF with at least one page.
func VerifyPDF(path string) (int, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if pdfCtx.PageCount < 1 {
		return 0, fmt.Errorf("PDF %s has no pages", path)
	}
	return pdfCtx.PageCount, nil
}
