package ports

import (
	"context"

	"spotArchiver/internal/domain"
)

// SeriesWriter persists one fully assembled instrument series.
//
// The pipeline calls WriteSeries at most once per instrument per run, never
// with an empty series, and never with a series violating the
// strictly-increasing / unique-timestamp invariant. Implementations decide
// format and location.
type SeriesWriter interface {
	WriteSeries(ctx context.Context, series *domain.Series) error
}
