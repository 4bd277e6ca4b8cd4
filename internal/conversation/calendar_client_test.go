package conversation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarClientAvailableSlots(t *testing.T) {
	const slotsBody = `[{"start":"2025-06-01T09:00:00+03:00","end":"2025-06-01T09:30:00+03:00"}]`
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/available_slots", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, slotsBody)
	}))
	defer srv.Close()

	client := NewCalendarClient(srv.URL+"/", nil)
	body, err := client.AvailableSlots(context.Background(), "2025-06-01T00:00:00", 30, 3)
	require.NoError(t, err)
	assert.Equal(t, slotsBody, body, "the body is passed through verbatim")

	assert.Equal(t, []string{"2025-06-01T00:00:00"}, gotQuery["start"])
	assert.Equal(t, []string{"30"}, gotQuery["duration"])
	assert.Equal(t, []string{"3"}, gotQuery["limit"])
}

func TestCalendarClientAvailableSlotsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "Missing 'start' parameter"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewCalendarClient(srv.URL, nil)
	_, err := client.AvailableSlots(context.Background(), "", 30, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestCalendarClientBookSlotSuccess(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/book_slot", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status": "success"}`)
	}))
	defer srv.Close()

	client := NewCalendarClient(srv.URL, nil)
	outcome, err := client.BookSlot(context.Background(), "2025-06-01T09:00:00", "2025-06-01T09:30:00", "Dana Levi")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, "The appointment was successfully made! See you :)", outcome.StatusMessage)
	assert.Equal(t, map[string]string{
		"start_time": "2025-06-01T09:00:00",
		"end_time":   "2025-06-01T09:30:00",
		"name":       "Dana Levi",
	}, gotBody)
}

func TestCalendarClientBookSlotRejection(t *testing.T) {
	const rejection = `{"status": "busy", "available": false}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, rejection)
	}))
	defer srv.Close()

	client := NewCalendarClient(srv.URL, nil)
	outcome, err := client.BookSlot(context.Background(), "2025-06-01T09:00:00", "2025-06-01T09:30:00", "Dana Levi")
	require.NoError(t, err, "a rejected booking is an outcome, not an error")

	assert.False(t, outcome.Success)
	assert.Equal(t, "Error in scheduling: "+rejection, outcome.StatusMessage)
}

func TestCalendarClientBookSlotTruncatesLongBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, strings.Repeat("x", 1000))
	}))
	defer srv.Close()

	client := NewCalendarClient(srv.URL, nil)
	outcome, err := client.BookSlot(context.Background(), "2025-06-01T09:00:00", "2025-06-01T09:30:00", "Dana Levi")
	require.NoError(t, err)
	assert.Equal(t, "Error in scheduling: "+strings.Repeat("x", 300), outcome.StatusMessage)
}

func TestCalendarClientNetworkError(t *testing.T) {
	client := NewCalendarClient("http://127.0.0.1:1", nil)

	_, err := client.AvailableSlots(context.Background(), "2025-06-01T00:00:00", 30, 3)
	assert.Error(t, err)

	_, err = client.BookSlot(context.Background(), "2025-06-01T09:00:00", "2025-06-01T09:30:00", "Dana Levi")
	assert.Error(t, err)
}
