package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"spotArchiver/internal/domain"
	"spotArchiver/internal/ports"
)

// klineFieldCount is the fixed column count of the published kline CSVs:
// open_time, open, high, low, close, volume, close_time, quote_asset_volume,
// trades_count, taker_buy_base, taker_buy_quote, ignore.
const klineFieldCount = 12

// Decoder turns the raw bytes of one monthly archive into a typed candle
// batch. Row order is preserved; sorting and deduplication happen downstream.
type Decoder struct {
	logger ports.Logger
}

// NewDecoder creates a Decoder.
func NewDecoder(log ports.Logger) (*Decoder, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required for archive decoder")
	}
	return &Decoder{logger: log}, nil
}

// DecodeResult carries the decoded batch plus the diagnostics the run
// manifest reports: the detected timestamp unit, the median that produced it,
// and per-row accounting.
type DecodeResult struct {
	Candles     []*domain.Candle
	Unit        domain.TimeUnit
	Median      float64
	RowsTotal   int // lines read from the embedded file
	RowsSkipped int // structurally unreadable lines (wrong field count, CSV error)
	RowsDropped int // lines that failed numeric/temporal coercion
}

// DecodeMonthArchive extracts the first embedded file of the ZIP payload and
// decodes it against the fixed kline schema.
//
// An unreadable container is a decode failure (wraps ports.ErrDecodeFailed).
// An archive with zero entries yields an empty result: no data this period,
// not an error. Individual bad rows are skipped or dropped, never fatal.
func (d *Decoder) DecodeMonthArchive(ctx context.Context, data []byte) (*DecodeResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening archive container: %w", ports.ErrDecodeFailed, err)
	}
	if len(zr.File) == 0 {
		d.logger.Warn(ctx, "Archive contains no embedded files, treating as empty period")
		return &DecodeResult{Unit: domain.UnitSeconds}, nil
	}

	f, err := zr.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening embedded file %q: %w", ports.ErrDecodeFailed, zr.File[0].Name, err)
	}
	defer f.Close()

	res := &DecodeResult{}

	// First pass: collect structurally valid rows and their raw open_time
	// values. The unit is detected over the whole batch, so conversion has
	// to wait until every row is read.
	type rawRow struct {
		openTime int64
		fields   []string
	}
	var (
		rows    []rawRow
		rawTime []int64
	)

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // field count is validated per row below
	reader.ReuseRecord = false

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.RowsTotal++
				res.RowsSkipped++
				continue
			}
			return nil, fmt.Errorf("%w: reading embedded file %q: %w", ports.ErrDecodeFailed, zr.File[0].Name, err)
		}
		res.RowsTotal++
		if len(record) != klineFieldCount {
			res.RowsSkipped++
			continue
		}
		ts, ok := parseRawTimestamp(record[0])
		if !ok {
			// A header line, if present, dies here.
			res.RowsDropped++
			continue
		}
		rows = append(rows, rawRow{openTime: ts, fields: record})
		rawTime = append(rawTime, ts)
	}

	res.Unit, res.Median = DetectTimeUnit(rawTime)
	d.logger.Info(ctx, "Detected timestamp unit", map[string]interface{}{
		"unit":   res.Unit.String(),
		"median": res.Median,
		"rows":   len(rows),
	})

	// Second pass: coerce the numeric fields. Any failure drops the whole
	// row; no field of a dropped row is reused.
	for _, row := range rows {
		open, ok := parsePrice(row.fields[1])
		if !ok {
			res.RowsDropped++
			continue
		}
		high, ok := parsePrice(row.fields[2])
		if !ok {
			res.RowsDropped++
			continue
		}
		low, ok := parsePrice(row.fields[3])
		if !ok {
			res.RowsDropped++
			continue
		}
		closePrice, ok := parsePrice(row.fields[4])
		if !ok {
			res.RowsDropped++
			continue
		}
		volume, ok := parsePrice(row.fields[5])
		if !ok {
			res.RowsDropped++
			continue
		}
		res.Candles = append(res.Candles, &domain.Candle{
			OpenTime: res.Unit.ToTime(row.openTime),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePrice,
			Volume:   volume,
		})
	}

	if res.RowsSkipped > 0 || res.RowsDropped > 0 {
		d.logger.Debug(ctx, "Discarded malformed rows", map[string]interface{}{
			"total":   res.RowsTotal,
			"skipped": res.RowsSkipped,
			"dropped": res.RowsDropped,
		})
	}
	return res, nil
}

// DetectTimeUnit classifies the timestamp encoding of a raw batch by the
// order of magnitude of its median value. One unit applies to the whole
// batch; per-row unit switching is not supported, so a corrupted minority of
// rows with a wildly different magnitude can skew the result.
//
// An empty batch defaults to seconds (no row survives coercion anyway).
func DetectTimeUnit(raw []int64) (domain.TimeUnit, float64) {
	if len(raw) == 0 {
		return domain.UnitSeconds, 0
	}
	sorted := make([]int64, len(raw))
	copy(sorted, raw)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		median = float64(sorted[mid])
	} else {
		median = (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
	}

	switch {
	case median > 1e17:
		return domain.UnitNanoseconds, median
	case median > 1e14:
		return domain.UnitMicroseconds, median
	case median > 1e11:
		return domain.UnitMilliseconds, median
	default:
		return domain.UnitSeconds, median
	}
}

// parseRawTimestamp coerces a raw open_time field to an integer count of
// units. Integral floats are accepted (some archives render timestamps in
// scientific or decimal notation), anything else fails.
func parseRawTimestamp(s string) (int64, bool) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// parsePrice coerces a price/volume field to a finite float64.
func parsePrice(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
