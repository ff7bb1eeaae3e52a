package config

import (
	"fmt"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/domain"
)

// StampLayout is the command-line format for range bounds.
const StampLayout = "20060102150405"

// Default range used by the historical commands when a bound is omitted.
const (
	DefaultRangeStart = 7 * 24 * time.Hour
	DefaultRangeEnd   = 24 * time.Hour
)

// ParseRange parses start and end as StampLayout in a fixed zone of
// offsetHours. Empty bounds default to now-1w and now-1d.
func ParseRange(start, end string, offsetHours int, now time.Time) (time.Time, time.Time, error) {
	if offsetHours < -12 || offsetHours > 14 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: tz offset %d out of range", domain.ErrInvalidConfiguration, offsetHours)
	}
	loc := time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*60*60)

	from := now.Add(-DefaultRangeStart)
	to := now.Add(-DefaultRangeEnd)
	var err error
	if start != "" {
		if from, err = time.ParseInLocation(StampLayout, start, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q: want YYYYMMDDhhmmss", domain.ErrInvalidConfiguration, start)
		}
	}
	if end != "" {
		if to, err = time.ParseInLocation(StampLayout, end, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q: want YYYYMMDDhhmmss", domain.ErrInvalidConfiguration, end)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end before start", domain.ErrInvalidConfiguration)
	}
	return from.UTC(), to.UTC(), nil
}
