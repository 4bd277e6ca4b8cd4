// Package gcal wraps the Google Calendar v3 API for one fixed calendar
// identity. It is the single source of truth for booked events.
package gcal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/docsched/clinic-ai-platform/internal/availability"
	"github.com/docsched/clinic-ai-platform/pkg/logging"
)

// Client is a thin Google Calendar client scoped to one calendar ID.
type Client struct {
	svc        *calendar.Service
	calendarID string
	timezone   string
	loc        *time.Location
	logger     *logging.Logger
}

// NewClient creates a calendar client. Credentials are injected through
// option.ClientOption (option.WithCredentialsFile in production; test
// servers pass WithEndpoint/WithHTTPClient).
func NewClient(ctx context.Context, calendarID, timezone string, logger *logging.Logger, opts ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(calendarID) == "" {
		return nil, fmt.Errorf("gcal: calendar id is required")
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("gcal: load timezone: %w", err)
	}
	if logger == nil {
		logger = logging.Default()
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcal: create calendar service: %w", err)
	}

	return &Client{
		svc:        svc,
		calendarID: calendarID,
		timezone:   timezone,
		loc:        loc,
		logger:     logger,
	}, nil
}

// ListBusy returns the time ranges of events intersecting [from, to],
// ordered by start. All-day events carry no dateTime and are skipped.
func (c *Client) ListBusy(ctx context.Context, from, to time.Time) ([]availability.TimeSlot, error) {
	events, err := c.svc.Events.List(c.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("gcal: list events: %w", err)
	}

	busy := make([]availability.TimeSlot, 0, len(events.Items))
	for _, e := range events.Items {
		if e.Start == nil || e.End == nil || e.Start.DateTime == "" || e.End.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, e.Start.DateTime)
		if err != nil {
			c.logger.Warn("gcal: skipping event with bad start", "event_id", e.Id, "error", err)
			continue
		}
		end, err := time.Parse(time.RFC3339, e.End.DateTime)
		if err != nil {
			c.logger.Warn("gcal: skipping event with bad end", "event_id", e.Id, "error", err)
			continue
		}
		busy = append(busy, availability.TimeSlot{Start: start.In(c.loc), End: end.In(c.loc)})
	}
	return busy, nil
}

// Insert creates an event with the given bounds and the patient name as the
// summary.
func (c *Client) Insert(ctx context.Context, start, end time.Time, summary string) error {
	event := &calendar.Event{
		Summary: summary,
		Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: c.timezone},
		End:     &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: c.timezone},
	}
	if _, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gcal: insert event: %w", err)
	}
	c.logger.Info("gcal: event created", "summary", summary, "start", start.Format(time.RFC3339))
	return nil
}
