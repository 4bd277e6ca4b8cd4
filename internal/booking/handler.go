// Package booking exposes the calendar service's HTTP surface: slot
// enumeration and the four-gate booking validation pipeline in front of the
// external calendar store.
package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/docsched/clinic-ai-platform/internal/availability"
	"github.com/docsched/clinic-ai-platform/internal/observability/metrics"
	"github.com/docsched/clinic-ai-platform/internal/schedule"
	"github.com/docsched/clinic-ai-platform/pkg/logging"
)

// Booking outcome statuses surfaced to clients.
const (
	StatusSuccess     = "success"
	StatusPast        = "past"
	StatusInvalid     = "invalid"
	StatusUnavailable = "unavailable"
	StatusBusy        = "busy"
	StatusError       = "error"
)

// EventStore is the external calendar dependency: list busy intervals and
// insert a booked event.
type EventStore interface {
	availability.BusyLister
	Insert(ctx context.Context, start, end time.Time, summary string) error
}

// HandlerConfig tunes defaults and the upstream timeout.
type HandlerConfig struct {
	DefaultDurationMinutes int
	DefaultSlotLimit       int
	UpstreamTimeout        time.Duration
	Now                    func() time.Time
}

// Handler handles HTTP requests for the booking service.
type Handler struct {
	store   EventStore
	engine  *availability.Engine
	hours   *schedule.WorkingHours
	metrics *metrics.BookingMetrics
	logger  *logging.Logger

	defaultDuration int
	defaultLimit    int
	timeout         time.Duration
	now             func() time.Time

	// Serializes the check-then-insert section so two concurrent requests
	// for the same slot cannot both pass the availability gate.
	mu sync.Mutex
}

// NewHandler creates a booking handler.
func NewHandler(store EventStore, hours *schedule.WorkingHours, engine *availability.Engine, m *metrics.BookingMetrics, logger *logging.Logger, cfg HandlerConfig) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = 30
	}
	if cfg.DefaultSlotLimit <= 0 {
		cfg.DefaultSlotLimit = 3
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 20 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Handler{
		store:           store,
		engine:          engine,
		hours:           hours,
		metrics:         m,
		logger:          logger,
		defaultDuration: cfg.DefaultDurationMinutes,
		defaultLimit:    cfg.DefaultSlotLimit,
		timeout:         cfg.UpstreamTimeout,
		now:             cfg.Now,
	}
}

// slotResponse is one enumerated open slot.
type slotResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AvailableSlots handles GET /available_slots requests.
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start")
	if startStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing 'start' parameter"})
		return
	}

	anchor, err := schedule.ParseTime(startStr, h.hours.Location())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid 'start' datetime: " + err.Error()})
		return
	}

	duration := h.defaultDuration
	if v := r.URL.Query().Get("duration"); v != "" {
		duration, err = strconv.Atoi(v)
		if err != nil || duration <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid 'duration' parameter"})
			return
		}
	}
	limit := h.defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid 'limit' parameter"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	started := time.Now()
	slots, err := h.engine.FindSlots(ctx, anchor, duration, limit)
	h.metrics.ObserveSlotSearch(time.Since(started).Seconds())
	if err != nil {
		h.logger.Error("slot search failed", "error", err, "start", startStr)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotResponse{
			Start: s.Start.Format(time.RFC3339),
			End:   s.End.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// bookRequest is the POST /book_slot body.
type bookRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Name      string `json:"name"`
}

// bookResponse is the POST /book_slot reply for every outcome.
type bookResponse struct {
	Status       string               `json:"status"`
	Message      string               `json:"message,omitempty"`
	StartTime    string               `json:"start_time,omitempty"`
	EndTime      string               `json:"end_time,omitempty"`
	Available    *bool                `json:"available,omitempty"`
	WorkingHours map[string][2]string `json:"working_hours,omitempty"`
}

// BookSlot handles POST /book_slot requests. The four validation gates run
// in a fixed order and short-circuit on first failure; only when all pass is
// the event written to the external calendar.
func (h *Handler) BookSlot(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode booking request", "error", err)
		writeJSON(w, http.StatusBadRequest, bookResponse{
			Status:  StatusInvalid,
			Message: "Invalid request body",
		})
		return
	}

	loc := h.hours.Location()
	start, startErr := schedule.ParseTime(req.StartTime, loc)
	end, endErr := schedule.ParseTime(req.EndTime, loc)
	if startErr != nil || endErr != nil {
		h.metrics.ObserveBooking(StatusInvalid)
		writeJSON(w, http.StatusBadRequest, bookResponse{
			Status:    StatusInvalid,
			Message:   "The start and end times must be valid ISO 8601 timestamps",
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
		return
	}

	if !schedule.Future(h.now(), start, end) {
		h.metrics.ObserveBooking(StatusPast)
		writeJSON(w, http.StatusBadRequest, bookResponse{
			Status:    StatusPast,
			Message:   "It is not possible to make an appointment for a time that has already passed",
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
		return
	}

	if !schedule.EndAfterStart(start, end) {
		h.metrics.ObserveBooking(StatusInvalid)
		writeJSON(w, http.StatusBadRequest, bookResponse{
			Status:    StatusInvalid,
			Message:   "The end time must be after the start time",
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
		return
	}

	if !h.hours.Within(start, end) {
		h.metrics.ObserveBooking(StatusUnavailable)
		writeJSON(w, http.StatusBadRequest, bookResponse{
			Status:       StatusUnavailable,
			Message:      "The time you chose is outside of business hours",
			StartTime:    req.StartTime,
			EndTime:      req.EndTime,
			WorkingHours: h.hours.Table(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	started := time.Now()
	available, err := h.engine.SlotAvailable(ctx, start, end)
	h.metrics.ObserveCalendarCall("list", time.Since(started).Seconds())
	if err != nil {
		h.logger.Error("availability check failed", "error", err)
		h.metrics.ObserveBooking(StatusError)
		writeJSON(w, http.StatusInternalServerError, bookResponse{
			Status:  StatusError,
			Message: err.Error(),
		})
		return
	}
	if !available {
		h.metrics.ObserveBooking(StatusBusy)
		notAvailable := false
		writeJSON(w, http.StatusConflict, bookResponse{
			Status:    StatusBusy,
			Available: &notAvailable,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
		return
	}

	started = time.Now()
	err = h.store.Insert(ctx, start, end, strings.TrimSpace(req.Name))
	h.metrics.ObserveCalendarCall("insert", time.Since(started).Seconds())
	if err != nil {
		h.logger.Error("event insert failed", "error", err, "name", req.Name)
		h.metrics.ObserveBooking(StatusError)
		writeJSON(w, http.StatusInternalServerError, bookResponse{
			Status:  StatusError,
			Message: err.Error(),
		})
		return
	}

	h.logger.Info("appointment booked", "name", req.Name, "start", req.StartTime, "end", req.EndTime)
	h.metrics.ObserveBooking(StatusSuccess)
	writeJSON(w, http.StatusOK, bookResponse{
		Status:    StatusSuccess,
		Message:   "The appointment was successfully scheduled!",
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
}

// HealthCheck handles GET /health requests.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
