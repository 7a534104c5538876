package ports

import (
	"context"

	"spotArchiver/internal/domain"
)

// TickerSource supplies 24h quote-volume statistics for all spot symbols,
// used only for automatic instrument selection.
type TickerSource interface {
	QuoteVolumes(ctx context.Context) ([]domain.SymbolVolume, error)
}
