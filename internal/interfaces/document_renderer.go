package interfaces

import (
	"context"

	"github.com/ternarybob/stockreport/internal/models"
)

// DocumentRenderer typesets a narrative into a finished document on disk.
type DocumentRenderer interface {
	// Render writes the document source, compiles it and returns the artifact path.
	// Failures are *models.RenderError values.
	Render(ctx context.Context, doc models.Document) (string, error)
}
