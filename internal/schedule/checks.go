package schedule

import "time"

// EndAfterStart reports whether end is strictly after start.
func EndAfterStart(start, end time.Time) bool {
	return end.After(start)
}

// Future reports whether both start and end are strictly after now.
func Future(now, start, end time.Time) bool {
	return start.After(now) && end.After(now)
}

// RoundDownToSlot truncates t to the nearest lower multiple of duration
// minutes within the hour, zeroing seconds and sub-second fields. Used to
// align a search anchor to the slot grid.
func RoundDownToSlot(t time.Time, durationMinutes int) time.Time {
	if durationMinutes <= 0 {
		durationMinutes = 1
	}
	minutes := (t.Minute() / durationMinutes) * durationMinutes
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minutes, 0, 0, t.Location())
}
