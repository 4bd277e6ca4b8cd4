// Package schedule holds the clinic's weekly working-hours table and the
// pure time-window checks used to validate appointments. All comparisons
// happen in one fixed clinic timezone so DST and offset differences in the
// caller's timestamps cannot skew the weekday lookup.
package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

// window is a single day's open/close bounds in minutes since midnight.
type window struct {
	openMinutes  int
	closeMinutes int
}

// WorkingHours maps weekdays to open/close local-time bounds. Days absent
// from the table are fully closed.
type WorkingHours struct {
	days map[time.Weekday]window
	loc  *time.Location
}

var weekdayNames = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// DefaultTable is the clinic schedule used when no override is configured.
func DefaultTable() map[string][2]string {
	return map[string][2]string{
		"Sunday":    {"09:00", "13:00"},
		"Monday":    {"09:00", "14:00"},
		"Tuesday":   {"09:00", "15:00"},
		"Wednesday": {"09:00", "16:00"},
		"Thursday":  {"09:00", "17:00"},
	}
}

// New builds a WorkingHours table from weekday-name → [open, close] clocks.
func New(table map[string][2]string, tz string) (*WorkingHours, error) {
	loc := time.UTC
	if tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("schedule: load timezone: %w", err)
		}
	}

	days := make(map[time.Weekday]window, len(table))
	for name, bounds := range table {
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("schedule: unknown weekday %q", name)
		}
		open, err := parseClock(bounds[0])
		if err != nil {
			return nil, fmt.Errorf("schedule: parse %s open: %w", name, err)
		}
		closeMin, err := parseClock(bounds[1])
		if err != nil {
			return nil, fmt.Errorf("schedule: parse %s close: %w", name, err)
		}
		if open >= closeMin {
			return nil, fmt.Errorf("schedule: %s open %s is not before close %s", name, bounds[0], bounds[1])
		}
		days[day] = window{openMinutes: open, closeMinutes: closeMin}
	}

	return &WorkingHours{days: days, loc: loc}, nil
}

// Parse builds a WorkingHours table from a JSON override of the form
// {"Sunday":["09:00","13:00"],...}. An empty document uses the default table.
func Parse(doc, tz string) (*WorkingHours, error) {
	if doc == "" {
		return New(DefaultTable(), tz)
	}
	var raw map[string][2]string
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return nil, fmt.Errorf("schedule: parse working hours json: %w", err)
	}
	return New(raw, tz)
}

func parseClock(v string) (int, error) {
	if v == "" {
		return 0, fmt.Errorf("empty clock")
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Location returns the clinic timezone.
func (h *WorkingHours) Location() *time.Location {
	return h.loc
}

// Table returns the schedule as weekday-name → [open, close] clocks, the
// shape echoed back to clients in outside-hours responses.
func (h *WorkingHours) Table() map[string][2]string {
	out := make(map[string][2]string, len(h.days))
	for name, day := range weekdayNames {
		w, ok := h.days[day]
		if !ok {
			continue
		}
		out[name] = [2]string{formatClock(w.openMinutes), formatClock(w.closeMinutes)}
	}
	return out
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// DayBounds returns the open and close instants for the day containing t
// (clinic time). ok is false when that weekday is closed.
func (h *WorkingHours) DayBounds(t time.Time) (open, close time.Time, ok bool) {
	local := t.In(h.loc)
	w, exists := h.days[local.Weekday()]
	if !exists {
		return time.Time{}, time.Time{}, false
	}
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, h.loc)
	return midnight.Add(time.Duration(w.openMinutes) * time.Minute),
		midnight.Add(time.Duration(w.closeMinutes) * time.Minute),
		true
}

// Within reports whether [start, end] falls inside the working hours of the
// single day containing start. Cross-midnight spans are never within hours.
func (h *WorkingHours) Within(start, end time.Time) bool {
	open, close, ok := h.DayBounds(start)
	if !ok {
		return false
	}
	start = start.In(h.loc)
	end = end.In(h.loc)
	return !start.Before(open) && !end.After(close)
}
