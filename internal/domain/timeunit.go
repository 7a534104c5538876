package domain

import "time"

// TimeUnit is the encoding of a raw numeric timestamp found in an archive.
type TimeUnit int

const (
	UnitSeconds TimeUnit = iota
	UnitMilliseconds
	UnitMicroseconds
	UnitNanoseconds
)

// String returns the conventional short suffix for the unit.
func (u TimeUnit) String() string {
	switch u {
	case UnitSeconds:
		return "s"
	case UnitMilliseconds:
		return "ms"
	case UnitMicroseconds:
		return "us"
	case UnitNanoseconds:
		return "ns"
	default:
		return "unknown"
	}
}

// ToTime converts a raw timestamp in this unit to an absolute UTC instant.
func (u TimeUnit) ToTime(raw int64) time.Time {
	switch u {
	case UnitSeconds:
		return time.Unix(raw, 0).UTC()
	case UnitMilliseconds:
		return time.UnixMilli(raw).UTC()
	case UnitMicroseconds:
		return time.UnixMicro(raw).UTC()
	case UnitNanoseconds:
		return time.Unix(0, raw).UTC()
	default:
		return time.Unix(raw, 0).UTC()
	}
}
