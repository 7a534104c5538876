package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Candle represents a single normalized candlestick data point.
// Past decoding, OpenTime is a non-zero UTC instant and all numeric fields
// are finite. Real-world plausibility (e.g. High >= Low) is not enforced.
type Candle struct {
	OpenTime time.Time // Start instant of the interval, UTC
	Open     float64   // Opening price
	High     float64   // Highest price
	Low      float64   // Lowest price
	Close    float64   // Closing price
	Volume   float64   // Base asset volume
}

// Series is the full assembled price series for one instrument.
// Candles are strictly increasing by OpenTime with no duplicates, but the
// series may contain time gaps: absent months are skipped, never null-filled.
type Series struct {
	Instrument Instrument
	Interval   string
	Candles    []*Candle
}

// SymbolVolume pairs an exchange symbol with its 24h quote volume, as
// reported by the ticker endpoint.
type SymbolVolume struct {
	Symbol      string
	QuoteVolume float64
}

// ErrInvalidInstrument is returned when a base asset token cannot form a
// valid instrument. Callers treat it as a configuration error.
var ErrInvalidInstrument = errors.New("invalid instrument base asset")

var baseAssetRe = regexp.MustCompile(`^[A-Z0-9]{1,20}$`)

// Instrument is a tradable pair: a base asset plus the full exchange symbol
// (base + quote asset).
type Instrument struct {
	Base   string
	Symbol string
}

// NewInstrument builds an Instrument from a base asset token and a quote
// asset. The base is upper-cased and validated; malformed bases are rejected.
func NewInstrument(base, quote string) (Instrument, error) {
	b := strings.ToUpper(strings.TrimSpace(base))
	if !baseAssetRe.MatchString(b) {
		return Instrument{}, fmt.Errorf("%w: %q", ErrInvalidInstrument, base)
	}
	return Instrument{Base: b, Symbol: b + quote}, nil
}
