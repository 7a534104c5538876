package ports

import (
	"context"

	"spotArchiver/internal/domain"
)

// ArchiveSource is the single I/O boundary the ingestion core depends on:
// it returns the raw archive bytes for one instrument-month.
//
// A confirmed-absent archive (the host has no file for that period) must be
// signalled by an error wrapping ErrArchiveNotFound; any other error is a
// transport failure. The two are handled differently by the pipeline.
type ArchiveSource interface {
	FetchMonthlyArchive(ctx context.Context, symbol, interval string, month domain.Month) ([]byte, error)
}
