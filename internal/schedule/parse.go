package schedule

import (
	"fmt"
	"time"
)

// ParseTime parses an ISO 8601 timestamp into the given location. Handles:
//   - RFC3339 with offset: "2006-01-02T15:04:05+03:00"
//   - RFC3339 UTC: "2006-01-02T15:04:05Z"
//   - Naive datetime (no offset): "2006-01-02T15:04:05", treated as local
func ParseTime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04", raw, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("schedule: cannot parse time %q", raw)
}
