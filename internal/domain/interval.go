package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval is returned for interval tokens the archive host does
// not publish. Callers treat it as a configuration error.
var ErrInvalidInterval = errors.New("invalid kline interval")

// intervalDurations maps the Binance kline interval tokens to their nominal
// bucket duration. Weeks and months are approximations (calendar months vary)
// and are only used for gap estimation, never by the pipeline itself.
var intervalDurations = map[string]time.Duration{
	"1s":  time.Second,
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"8h":  8 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"3d":  72 * time.Hour,
	"1w":  7 * 24 * time.Hour,
	"1M":  30 * 24 * time.Hour,
}

// ValidateInterval checks the token against the published interval set.
func ValidateInterval(interval string) error {
	if _, ok := intervalDurations[interval]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidInterval, interval)
	}
	return nil
}

// IntervalDuration returns the nominal duration of one interval bucket.
func IntervalDuration(interval string) (time.Duration, error) {
	d, ok := intervalDurations[interval]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, interval)
	}
	return d, nil
}
