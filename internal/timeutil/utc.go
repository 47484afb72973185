// Package timeutil converts feed timestamps to UTC.
package timeutil

import (
	"fmt"
	"strconv"
	"time"
)

// UTCOffsetHours returns the local zone offset from UTC in whole hours for t.
// Logged at session start so the UTC-normalized tick timestamps can be related
// to local operator logs. Offsets beyond ±10h are legal (e.g. Pacific/Auckland)
// and pass through as-is.
func UTCOffsetHours(t time.Time) int {
	_, seconds := t.Zone()
	return seconds / 3600
}

// EpochToUTC parses an epoch-seconds string (the lastTimestamp tick payload)
// into a UTC time. Fractional seconds are truncated by the feed upstream.
func EpochToUTC(raw string) (time.Time, error) {
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse epoch %q: %w", raw, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}
