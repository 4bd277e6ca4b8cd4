package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/docsched/clinic-ai-platform/pkg/logging"
)

const calendarClientTimeout = 25 * time.Second

// BookingOutcome is the calendar service's answer to a booking attempt.
type BookingOutcome struct {
	Success       bool
	StatusMessage string
}

// CalendarService is the booking backend as seen by the chat pipeline.
type CalendarService interface {
	// AvailableSlots returns the raw slots JSON for the given ISO anchor.
	AvailableSlots(ctx context.Context, start string, durationMinutes, limit int) (string, error)
	// BookSlot attempts a booking and reports the outcome. A rejected
	// booking is not an error; the outcome carries the service's message.
	BookSlot(ctx context.Context, start, end, name string) (BookingOutcome, error)
}

// CalendarClient is an HTTP client for the calendar booking service.
type CalendarClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewCalendarClient creates a calendar service client.
func NewCalendarClient(baseURL string, logger *logging.Logger) *CalendarClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &CalendarClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: calendarClientTimeout},
		logger:     logger,
	}
}

// AvailableSlots calls GET /available_slots and returns the response body
// verbatim; the responder hands it to the LLM as-is.
func (c *CalendarClient) AvailableSlots(ctx context.Context, start string, durationMinutes, limit int) (string, error) {
	q := url.Values{}
	q.Set("start", start)
	if durationMinutes > 0 {
		q.Set("duration", strconv.Itoa(durationMinutes))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/available_slots?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("conversation: create slots request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("conversation: slots request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("conversation: read slots response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("conversation: slots request failed: status %d: %s", resp.StatusCode, truncate(string(body)))
	}
	return string(body), nil
}

// BookSlot calls POST /book_slot. Non-200 statuses are outcomes, not errors:
// the service's JSON body becomes the status message the responder narrates.
func (c *CalendarClient) BookSlot(ctx context.Context, start, end, name string) (BookingOutcome, error) {
	payload, err := json.Marshal(map[string]string{
		"start_time": start,
		"end_time":   end,
		"name":       name,
	})
	if err != nil {
		return BookingOutcome{}, fmt.Errorf("conversation: marshal booking request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/book_slot", bytes.NewReader(payload))
	if err != nil {
		return BookingOutcome{}, fmt.Errorf("conversation: create booking request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return BookingOutcome{}, fmt.Errorf("conversation: booking request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return BookingOutcome{}, fmt.Errorf("conversation: read booking response: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return BookingOutcome{
			Success:       true,
			StatusMessage: "The appointment was successfully made! See you :)",
		}, nil
	}
	c.logger.Info("booking rejected by calendar service", "status", resp.StatusCode)
	return BookingOutcome{
		Success:       false,
		StatusMessage: fmt.Sprintf("Error in scheduling: %s", truncate(string(body))),
	}, nil
}

func truncate(s string) string {
	if len(s) > 300 {
		return s[:300]
	}
	return s
}
