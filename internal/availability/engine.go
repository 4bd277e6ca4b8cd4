// Package availability composes the working-hours table with the busy
// intervals of an external calendar to answer free/busy questions and
// enumerate open appointment slots.
package availability

import (
	"context"
	"time"

	"github.com/docsched/clinic-ai-platform/internal/schedule"
)

// TimeSlot is a candidate appointment interval or a busy calendar interval.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BusyLister lists existing calendar events intersecting a time range,
// ordered by start. Implemented by the Google Calendar client and by test
// fakes.
type BusyLister interface {
	ListBusy(ctx context.Context, from, to time.Time) ([]TimeSlot, error)
}

// Engine produces free/busy decisions against a BusyLister. It holds no
// state between calls; every query fetches a fresh busy list.
type Engine struct {
	store         BusyLister
	hours         *schedule.WorkingHours
	lookaheadDays int
}

// NewEngine creates an availability engine with a bounded lookahead window.
func NewEngine(store BusyLister, hours *schedule.WorkingHours, lookaheadDays int) *Engine {
	if lookaheadDays <= 0 {
		lookaheadDays = 30
	}
	return &Engine{store: store, hours: hours, lookaheadDays: lookaheadDays}
}

// SlotAvailable reports whether no existing event intersects [start, end].
// The bounds are handed to the remote range query as-is; the remote API
// treats them inclusively, so events that merely touch a bound count as
// conflicts there.
func (e *Engine) SlotAvailable(ctx context.Context, start, end time.Time) (bool, error) {
	busy, err := e.store.ListBusy(ctx, start, end)
	if err != nil {
		return false, err
	}
	return len(busy) == 0, nil
}

// FindSlots walks forward from anchor and collects up to limit free slots of
// the given duration inside working hours. The walk is bounded by the
// engine's lookahead window; when the window is exhausted the collected
// slots are returned even if fewer than limit were found.
func (e *Engine) FindSlots(ctx context.Context, anchor time.Time, durationMinutes, limit int) ([]TimeSlot, error) {
	loc := e.hours.Location()
	cursor := schedule.RoundDownToSlot(anchor.In(loc), durationMinutes)
	slotLen := time.Duration(durationMinutes) * time.Minute
	horizon := cursor.AddDate(0, 0, e.lookaheadDays)

	busy, err := e.store.ListBusy(ctx, cursor, horizon)
	if err != nil {
		return nil, err
	}

	slots := make([]TimeSlot, 0, limit)
	for len(slots) < limit && cursor.Before(horizon) {
		open, close, ok := e.hours.DayBounds(cursor)
		if !ok {
			cursor = nextMidnight(cursor, loc)
			continue
		}
		if cursor.Before(open) {
			cursor = open
		}
		for len(slots) < limit && !cursor.Add(slotLen).After(close) {
			if isFree(busy, cursor, cursor.Add(slotLen)) {
				slots = append(slots, TimeSlot{Start: cursor, End: cursor.Add(slotLen)})
			}
			cursor = cursor.Add(slotLen)
		}
		cursor = nextMidnight(cursor, loc)
	}
	return slots, nil
}

// isFree applies the strict-overlap test against every busy interval.
func isFree(busy []TimeSlot, start, end time.Time) bool {
	for _, b := range busy {
		if start.Before(b.End) && b.Start.Before(end) {
			return false
		}
	}
	return true
}

func nextMidnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
}
