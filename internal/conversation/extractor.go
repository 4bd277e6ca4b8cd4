package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SearchQuery is the structured result of extracting a slot-search request.
// Missing fields carry sentinel values: "0000-00-00" for the date and
// "00:00:00" for the target time.
type SearchQuery struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// HasDate reports whether the user actually provided a date.
func (q SearchQuery) HasDate() bool {
	return q.Date != "" && q.Date != "0000-00-00"
}

// BookingDetails is the structured result of extracting a booking request.
type BookingDetails struct {
	Confirmation  flexBool `json:"confirmation"`
	StartDatetime string   `json:"start_datetime"`
	EndDatetime   string   `json:"end_datetime"`
	Name          string   `json:"name"`
}

// MissingFields lists the booking fields the user has not provided yet.
func (d BookingDetails) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(d.StartDatetime) == "" {
		missing = append(missing, "start time")
	}
	if strings.TrimSpace(d.EndDatetime) == "" {
		missing = append(missing, "end time")
	}
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, "name")
	}
	return missing
}

// flexBool tolerates the model answering true, "True", or "false".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = flexBool(strings.EqualFold(strings.TrimSpace(s), "true"))
		return nil
	}
	return fmt.Errorf("conversation: cannot parse confirmation %s", data)
}

const searchExtractionPrompt = `Current time: %s
User input: %q
User intent: search_slots

- Always try to pin down a date even if the user wrote "tomorrow" etc.
- If the user requested a time such as "noon", extract an hour within working
  hours, as early as possible within that time unit. Working hours: %s

Extract the following and respond with JSON only:
{"date": "Date in YYYY-MM-DD format (if not given, 0000-00-00)",
 "time": "Time in 24-hour HH:MM:SS format (if no target time, 00:00:00)"}

Chat history:
%s`

const bookingExtractionPrompt = `Current time: %s
User input: %q
User intent: book_appointment

- Always try to pin down a date even if the user wrote "tomorrow" etc.
- Datetimes use full ISO format with the clinic offset, e.g. 2025-05-14T09:00:00+03:00.

Extract the following and respond with JSON only:
{"confirmation": "Does the user confirm the appointment time? true or false",
 "start_datetime": "Start date and time in full ISO format",
 "end_datetime": "End date and time in the same format; if missing, default to 30 minutes after start",
 "name": "The user's name, if provided"}

Chat history:
%s`

// Extractor pulls structured booking fields out of free text with the
// deterministic extraction model.
type Extractor struct {
	client    LLMClient
	hoursHint string
	now       func() time.Time
}

// NewExtractor creates an extractor. The working-hours table is embedded in
// the search prompt so vague times ("morning") resolve inside open hours.
func NewExtractor(client LLMClient, workingHours map[string][2]string, now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	hint, _ := json.Marshal(workingHours)
	return &Extractor{client: client, hoursHint: string(hint), now: now}
}

// ExtractSearch extracts the date/time fields of a slot-search request.
func (e *Extractor) ExtractSearch(ctx context.Context, message string, history []ChatMessage) (SearchQuery, error) {
	prompt := fmt.Sprintf(searchExtractionPrompt,
		e.now().Format("2006-01-02T15:04:05"), message, e.hoursHint, renderHistory(history))

	resp, err := e.client.Complete(ctx, LLMRequest{
		Messages:  []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		MaxTokens: 100,
	})
	if err != nil {
		return SearchQuery{}, err
	}

	var query SearchQuery
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &query); err != nil {
		return SearchQuery{}, fmt.Errorf("conversation: parse search extraction: %w", err)
	}
	return query, nil
}

// ExtractBooking extracts the confirmation/start/end/name fields of a
// booking request.
func (e *Extractor) ExtractBooking(ctx context.Context, message string, history []ChatMessage) (BookingDetails, error) {
	prompt := fmt.Sprintf(bookingExtractionPrompt,
		e.now().Format("2006-01-02T15:04:05"), message, renderHistory(history))

	resp, err := e.client.Complete(ctx, LLMRequest{
		Messages:  []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		MaxTokens: 200,
	})
	if err != nil {
		return BookingDetails{}, err
	}

	var details BookingDetails
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &details); err != nil {
		return BookingDetails{}, fmt.Errorf("conversation: parse booking extraction: %w", err)
	}

	// A parseable start with no end means a 30-minute appointment.
	if strings.TrimSpace(details.EndDatetime) == "" && strings.TrimSpace(details.StartDatetime) != "" {
		if start, err := time.Parse(time.RFC3339, details.StartDatetime); err == nil {
			details.EndDatetime = start.Add(30 * time.Minute).Format(time.RFC3339)
		}
	}
	return details, nil
}
