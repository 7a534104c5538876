// Package series holds the pure ordering operations of the pipeline:
// per-month normalization and cross-month merging. Both are deterministic,
// idempotent functions of their input and never mutate it.
package series

import (
	"sort"

	"spotArchiver/internal/domain"
)

// Normalize sorts candles ascending by open time and collapses duplicate
// timestamps, keeping the first-encountered row in original input order.
// Duplicates occur legitimately when upstream archives overlap boundaries.
//
// The sort is stable, which is what makes "first-encountered" well defined.
// The input slice is not modified.
func Normalize(candles []*domain.Candle) []*domain.Candle {
	sorted := make([]*domain.Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OpenTime.Before(sorted[j].OpenTime)
	})

	out := sorted[:0]
	for _, c := range sorted {
		if len(out) > 0 && out[len(out)-1].OpenTime.Equal(c.OpenTime) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Merge concatenates per-month candle batches in month order and re-applies
// the Normalize rule across the combined set; month boundaries can overlap by
// a few timestamps. Empty input, or input where every month is empty, yields
// an empty result — the caller treats that as the explicit no-data outcome.
func Merge(monthly [][]*domain.Candle) []*domain.Candle {
	var total int
	for _, m := range monthly {
		total += len(m)
	}
	combined := make([]*domain.Candle, 0, total)
	for _, m := range monthly {
		combined = append(combined, m...)
	}
	return Normalize(combined)
}
