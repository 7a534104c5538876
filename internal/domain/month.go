package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidMonthRange is returned by MonthsBetween when start is after end.
// Callers treat it as a configuration error.
var ErrInvalidMonthRange = errors.New("invalid month range: start is after end")

// Month identifies one calendar month (the addressing unit of the monthly
// archives). It is an immutable value type, ordered by (Year, Month).
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a "YYYY-MM" token into a Month.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month token %q (want YYYY-MM): %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// String renders the month in the "YYYY-MM" form used in archive paths.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Next returns the following calendar month, rolling December into January.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Before reports whether m is strictly earlier than other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// Start returns the first instant of the month in UTC.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// MonthOf returns the calendar month containing t (evaluated in UTC).
func MonthOf(t time.Time) Month {
	u := t.UTC()
	return Month{Year: u.Year(), Month: u.Month()}
}

// PreviousMonth returns the closed calendar month immediately before the one
// containing t.
func PreviousMonth(t time.Time) Month {
	u := t.UTC()
	first := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, 0, -1)
	return Month{Year: prev.Year(), Month: prev.Month()}
}

// MonthsBetween expands an inclusive [start, end] pair into the ordered,
// consecutive sequence of months it spans. start > end is an error, never
// silently corrected.
func MonthsBetween(start, end Month) ([]Month, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidMonthRange, start, end)
	}
	count := (end.Year*12 + int(end.Month)) - (start.Year*12 + int(start.Month)) + 1
	months := make([]Month, 0, count)
	for cur := start; !end.Before(cur); cur = cur.Next() {
		months = append(months, cur)
	}
	return months, nil
}
