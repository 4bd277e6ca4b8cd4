package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsched/clinic-ai-platform/internal/schedule"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 8, 0, 0, 0, time.FixedZone("IDT", 3*60*60))
}

func TestExtractSearch(t *testing.T) {
	llm := &scriptedLLM{routes: []llmRoute{{
		marker: "User intent: search_slots",
		reply:  `{"date": "2025-06-02", "time": "10:00:00"}`,
	}}}
	ex := NewExtractor(llm, schedule.DefaultTable(), fixedNow)

	query, err := ex.ExtractSearch(context.Background(), "something Monday morning?", nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02", query.Date)
	assert.Equal(t, "10:00:00", query.Time)
	assert.True(t, query.HasDate())

	// The prompt anchors relative dates and vague times.
	assert.Contains(t, llm.lastPrompt(), "2025-06-01T08:00:00")
	assert.Contains(t, llm.lastPrompt(), `"Sunday":["09:00","13:00"]`)
}

func TestExtractSearchSentinels(t *testing.T) {
	llm := &scriptedLLM{routes: []llmRoute{{
		marker: "User intent: search_slots",
		reply:  `{"date": "0000-00-00", "time": "00:00:00"}`,
	}}}
	ex := NewExtractor(llm, schedule.DefaultTable(), fixedNow)

	query, err := ex.ExtractSearch(context.Background(), "do you have anything free?", nil)
	require.NoError(t, err)
	assert.False(t, query.HasDate())
}

func TestExtractSearchRejectsGarbage(t *testing.T) {
	llm := &scriptedLLM{routes: []llmRoute{{
		marker: "User intent: search_slots",
		reply:  "I could not find a date in that message.",
	}}}
	ex := NewExtractor(llm, schedule.DefaultTable(), fixedNow)

	_, err := ex.ExtractSearch(context.Background(), "anything?", nil)
	assert.Error(t, err)
}

func TestExtractBooking(t *testing.T) {
	llm := &scriptedLLM{routes: []llmRoute{{
		marker: "User intent: book_appointment",
		reply: `{"confirmation": true,
		 "start_datetime": "2025-06-02T09:00:00+03:00",
		 "end_datetime": "2025-06-02T09:30:00+03:00",
		 "name": "Dana Levi"}`,
	}}}
	ex := NewExtractor(llm, schedule.DefaultTable(), fixedNow)

	details, err := ex.ExtractBooking(context.Background(), "yes, book it for Dana Levi", nil)
	require.NoError(t, err)
	assert.True(t, bool(details.Confirmation))
	assert.Equal(t, "2025-06-02T09:00:00+03:00", details.StartDatetime)
	assert.Equal(t, "Dana Levi", details.Name)
	assert.Empty(t, details.MissingFields())
}

func TestExtractBookingDefaultsEndTime(t *testing.T) {
	llm := &scriptedLLM{routes: []llmRoute{{
		marker: "User intent: book_appointment",
		reply: `{"confirmation": "True",
		 "start_datetime": "2025-06-02T09:00:00+03:00",
		 "end_datetime": "",
		 "name": "Dana Levi"}`,
	}}}
	ex := NewExtractor(llm, schedule.DefaultTable(), fixedNow)

	details, err := ex.ExtractBooking(context.Background(), "book me for nine", nil)
	require.NoError(t, err)
	assert.True(t, bool(details.Confirmation), "string form of the flag must parse")
	assert.Equal(t, "2025-06-02T09:30:00+03:00", details.EndDatetime)
}

func TestExtractBookingKeepsUnparseableStartAsIs(t *testing.T) {
	llm := &scriptedLLM{routes: []llmRoute{{
		marker: "User intent: book_appointment",
		reply: `{"confirmation": false,
		 "start_datetime": "sometime next week",
		 "end_datetime": "",
		 "name": ""}`,
	}}}
	ex := NewExtractor(llm, schedule.DefaultTable(), fixedNow)

	details, err := ex.ExtractBooking(context.Background(), "maybe next week", nil)
	require.NoError(t, err)
	assert.Empty(t, details.EndDatetime, "no default end without a parseable start")
	assert.Equal(t, []string{"end time", "name"}, details.MissingFields())
}

func TestMissingFields(t *testing.T) {
	all := BookingDetails{}
	assert.Equal(t, []string{"start time", "end time", "name"}, all.MissingFields())

	justName := BookingDetails{
		StartDatetime: "2025-06-02T09:00:00+03:00",
		EndDatetime:   "2025-06-02T09:30:00+03:00",
	}
	assert.Equal(t, []string{"name"}, justName.MissingFields())
}

func TestFlexBool(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`"True"`, true},
		{`" false "`, false},
		{`"yes"`, false},
	}
	for _, tc := range cases {
		var b flexBool
		require.NoError(t, b.UnmarshalJSON([]byte(tc.raw)), tc.raw)
		assert.Equal(t, tc.want, bool(b), tc.raw)
	}

	var b flexBool
	assert.Error(t, b.UnmarshalJSON([]byte(`42`)))
}
