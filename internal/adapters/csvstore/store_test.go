package csvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotArchiver/internal/domain"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func testSeries(t *testing.T) *domain.Series {
	t.Helper()
	inst, err := domain.NewInstrument("BTC", "USDT")
	require.NoError(t, err)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Series{
		Instrument: inst,
		Interval:   "1h",
		Candles: []*domain.Candle{
			{OpenTime: base, Open: 42000.5, High: 42100, Low: 41900.25, Close: 42050, Volume: 12.75},
			{OpenTime: base.Add(time.Hour), Open: 42050, High: 42200, Low: 42000, Close: 42150, Volume: 8.5},
		},
	}
}

func TestStore_WriteAndReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New(Config{Dir: dir, Logger: &mockLogger{}})
	require.NoError(t, err)

	series := testSeries(t)
	require.NoError(t, store.WriteSeries(context.Background(), series))

	path := store.SeriesPath(series.Instrument, series.Interval)
	assert.Equal(t, filepath.Join(dir, "BTC_1h.csv"), path)

	got, err := ReadSeries(path)
	require.NoError(t, err)
	require.Len(t, got, len(series.Candles))
	for i, c := range series.Candles {
		assert.True(t, c.OpenTime.Equal(got[i].OpenTime))
		assert.Equal(t, c.Open, got[i].Open)
		assert.Equal(t, c.High, got[i].High)
		assert.Equal(t, c.Low, got[i].Low)
		assert.Equal(t, c.Close, got[i].Close)
		assert.Equal(t, c.Volume, got[i].Volume)
	}
}

func TestStore_WriteSeries_TruncatesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	store, err := New(Config{Dir: dir, Logger: &mockLogger{}})
	require.NoError(t, err)

	series := testSeries(t)
	require.NoError(t, store.WriteSeries(context.Background(), series))

	shorter := &domain.Series{
		Instrument: series.Instrument,
		Interval:   series.Interval,
		Candles:    series.Candles[:1],
	}
	require.NoError(t, store.WriteSeries(context.Background(), shorter))

	got, err := ReadSeries(store.SeriesPath(series.Instrument, series.Interval))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_Header(t *testing.T) {
	dir := t.TempDir()
	store, err := New(Config{Dir: dir, Logger: &mockLogger{}})
	require.NoError(t, err)

	series := testSeries(t)
	require.NoError(t, store.WriteSeries(context.Background(), series))

	data, err := os.ReadFile(store.SeriesPath(series.Instrument, series.Interval))
	require.NoError(t, err)
	assert.Contains(t, string(data), "timestamp,open,high,low,close,volume\n")
	assert.Contains(t, string(data), "2024-01-01T00:00:00Z,42000.5,")
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "raw")
	_, err := New(Config{Dir: dir, Logger: &mockLogger{}})
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestReadSeries_MissingFile(t *testing.T) {
	_, err := ReadSeries(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
