package interfaces

import (
	"context"

	"github.com/ternarybob/stockreport/internal/models"
)

// NarrativeService turns computed metrics into report prose using a text-generation provider.
type NarrativeService interface {
	// Summarize makes exactly one provider call and returns the generated narrative.
	// Failures are *models.NarrativeError values.
	Summarize(ctx context.Context, symbol string, metrics models.Metrics, dateRange models.DateRange) (string, error)

	// Name identifies the provider in logs and errors.
	Name() string
}
