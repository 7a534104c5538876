package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"spotArchiver/internal/domain"
	"spotArchiver/internal/ports"
)

var header = []string{"timestamp", "open", "high", "low", "close", "volume"}

// Store implements the ports.SeriesWriter interface as one CSV file per
// instrument under a data directory.
type Store struct {
	dir    string
	logger ports.Logger
}

// Config holds configuration for the CSV store.
type Config struct {
	Dir    string // Output directory, created if missing
	Logger ports.Logger
}

// New creates a CSV store and ensures its directory exists.
func New(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for CSV store")
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "./data/raw"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %q: %w", dir, err)
	}
	return &Store{dir: dir, logger: cfg.Logger}, nil
}

// SeriesPath returns the output path for one instrument series:
// <dir>/<BASE>_<interval>.csv.
func (s *Store) SeriesPath(instrument domain.Instrument, interval string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.csv", instrument.Base, interval))
}

// WriteSeries writes the full series as CSV, truncating any previous file for
// the same instrument and interval. Timestamps are RFC3339 UTC.
func (s *Store) WriteSeries(ctx context.Context, series *domain.Series) error {
	path := s.SeriesPath(series.Instrument, series.Interval)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %q: %w", ports.ErrUpdateFailed, path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("%w: writing header to %q: %w", ports.ErrUpdateFailed, path, err)
	}
	for _, c := range series.Candles {
		record := []string{
			c.OpenTime.UTC().Format(time.RFC3339),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("%w: writing row to %q: %w", ports.ErrUpdateFailed, path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%w: flushing %q: %w", ports.ErrUpdateFailed, path, err)
	}

	s.logger.Info(ctx, "Series written to CSV", map[string]interface{}{
		"path": path, "rows": len(series.Candles),
	})
	return nil
}

// ReadSeries reads candles back from a file produced by WriteSeries.
func ReadSeries(path string) ([]*domain.Candle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %q: %w", ports.ErrQueryFailed, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(header)

	// Header line.
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading header of %q: %w", ports.ErrQueryFailed, path, err)
	}

	var candles []*domain.Candle
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading %q: %w", ports.ErrQueryFailed, path, err)
		}
		ts, err := time.Parse(time.RFC3339, record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: parsing timestamp %q in %q: %w", ports.ErrQueryFailed, record[0], path, err)
		}
		values := make([]float64, 5)
		for i := 0; i < 5; i++ {
			values[i], err = strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: parsing %q in %q: %w", ports.ErrQueryFailed, record[i+1], path, err)
			}
		}
		candles = append(candles, &domain.Candle{
			OpenTime: ts.UTC(),
			Open:     values[0],
			High:     values[1],
			Low:      values[2],
			Close:    values[3],
			Volume:   values[4],
		})
	}
	return candles, nil
}
