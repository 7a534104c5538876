package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInstrument(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		quote   string
		want    Instrument
		wantErr bool
	}{
		{name: "plain base", base: "BTC", quote: "USDT", want: Instrument{Base: "BTC", Symbol: "BTCUSDT"}},
		{name: "lower-cased input", base: " sol ", quote: "USDT", want: Instrument{Base: "SOL", Symbol: "SOLUSDT"}},
		{name: "numeric base", base: "1INCH", quote: "USDT", want: Instrument{Base: "1INCH", Symbol: "1INCHUSDT"}},
		{name: "empty base", base: "", quote: "USDT", wantErr: true},
		{name: "punctuation", base: "BTC-PERP", quote: "USDT", wantErr: true},
		{name: "too long", base: "ABCDEFGHIJKLMNOPQRSTU", quote: "USDT", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewInstrument(tt.base, tt.quote)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInstrument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeUnit_ToTime(t *testing.T) {
	// 2023-01-01T00:00:00Z expressed in each unit.
	instant := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, instant, UnitSeconds.ToTime(1672531200))
	assert.Equal(t, instant, UnitMilliseconds.ToTime(1672531200000))
	assert.Equal(t, instant, UnitMicroseconds.ToTime(1672531200000000))
	assert.Equal(t, instant, UnitNanoseconds.ToTime(1672531200000000000))
}

func TestTimeUnit_String(t *testing.T) {
	assert.Equal(t, "s", UnitSeconds.String())
	assert.Equal(t, "ms", UnitMilliseconds.String())
	assert.Equal(t, "us", UnitMicroseconds.String())
	assert.Equal(t, "ns", UnitNanoseconds.String())
}

func TestValidateInterval(t *testing.T) {
	assert.NoError(t, ValidateInterval("1h"))
	assert.NoError(t, ValidateInterval("1M"))
	assert.ErrorIs(t, ValidateInterval("2w"), ErrInvalidInterval)
	assert.ErrorIs(t, ValidateInterval(""), ErrInvalidInterval)
}

func TestIntervalDuration(t *testing.T) {
	d, err := IntervalDuration("4h")
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, d)

	_, err = IntervalDuration("7m")
	assert.ErrorIs(t, err, ErrInvalidInterval)
}
