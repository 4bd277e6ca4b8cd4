package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/docsched/clinic-ai-platform/internal/observability/metrics"
	"github.com/docsched/clinic-ai-platform/pkg/logging"
)

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the POST /chat reply.
type ChatResponse struct {
	Reply           string `json:"reply"`
	SessionID       string `json:"session_id"`
	ConversationEnd bool   `json:"conversation_end"`
}

// ResetRequest is the POST /reset body.
type ResetRequest struct {
	SessionID string `json:"session_id"`
}

// Handler drives the chat pipeline: classify, extract, act, reply.
type Handler struct {
	sessions   SessionStore
	classifier *IntentClassifier
	extractor  *Extractor
	responder  *Responder
	calendar   CalendarService
	metrics    *metrics.ChatMetrics
	logger     *logging.Logger

	slotDuration int
	slotLimit    int
}

// NewHandler creates a chat handler.
func NewHandler(sessions SessionStore, classifier *IntentClassifier, extractor *Extractor, responder *Responder, calendar CalendarService, m *metrics.ChatMetrics, logger *logging.Logger, slotDuration, slotLimit int) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if slotDuration <= 0 {
		slotDuration = 30
	}
	if slotLimit <= 0 {
		slotLimit = 3
	}
	return &Handler{
		sessions:     sessions,
		classifier:   classifier,
		extractor:    extractor,
		responder:    responder,
		calendar:     calendar,
		metrics:      m,
		logger:       logger,
		slotDuration: slotDuration,
		slotLimit:    slotLimit,
	}
}

// Chat handles POST /chat requests.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if strings.TrimSpace(req.Message) == "" {
		writeChatJSON(w, http.StatusOK, ChatResponse{
			Reply:     "I didn't receive a message.",
			SessionID: sessionID,
		})
		return
	}

	ctx := r.Context()
	history, err := h.sessions.Load(ctx, sessionID)
	if err != nil {
		h.logger.Error("failed to load session", "error", err, "session_id", sessionID)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	history = append(history, ChatMessage{Role: ChatRoleUser, Content: req.Message})

	intent, err := h.classifier.Classify(ctx, req.Message, history)
	if err != nil {
		h.logger.Error("intent classification failed", "error", err, "session_id", sessionID)
		http.Error(w, "language model unavailable", http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveIntent(string(intent))
	h.logger.Info("intent classified", "intent", intent, "session_id", sessionID)

	var reply string
	var bookingDone bool

	switch intent {
	case IntentGreeting:
		reply, err = h.responder.Greeting(ctx, req.Message, history)

	case IntentSearchSlots:
		reply, err = h.handleSearch(ctx, req.Message, history)

	case IntentBookAppointment:
		reply, bookingDone, err = h.handleBooking(ctx, req.Message, history)

	default:
		reply, err = h.responder.Clarify(ctx, req.Message, history)
	}
	if err != nil {
		h.logger.Error("chat pipeline failed", "error", err, "intent", intent, "session_id", sessionID)
		http.Error(w, "language model unavailable", http.StatusInternalServerError)
		return
	}

	history = append(history, ChatMessage{Role: ChatRoleAssistant, Content: reply})

	// A completed booking ends the conversation; the session starts fresh.
	if bookingDone {
		if err := h.sessions.Reset(ctx, sessionID); err != nil {
			h.logger.Error("failed to reset session", "error", err, "session_id", sessionID)
		}
		writeChatJSON(w, http.StatusOK, ChatResponse{
			Reply:           reply,
			SessionID:       sessionID,
			ConversationEnd: true,
		})
		return
	}

	if err := h.sessions.Save(ctx, sessionID, history); err != nil {
		h.logger.Error("failed to save session", "error", err, "session_id", sessionID)
	}
	writeChatJSON(w, http.StatusOK, ChatResponse{
		Reply:     reply,
		SessionID: sessionID,
	})
}

func (h *Handler) handleSearch(ctx context.Context, message string, history []ChatMessage) (string, error) {
	query, err := h.extractor.ExtractSearch(ctx, message, history)
	if err != nil {
		return "", err
	}
	if !query.HasDate() {
		return h.responder.AskMissingInfo(ctx, message, IntentSearchSlots, []string{"date"}, history)
	}

	queryTime := query.Time
	if queryTime == "" {
		queryTime = "00:00:00"
	}
	anchor := fmt.Sprintf("%sT%s", query.Date, queryTime)

	slotsJSON, err := h.calendar.AvailableSlots(ctx, anchor, h.slotDuration, h.slotLimit)
	if err != nil {
		// The responder still answers; it explains dates and hours even
		// without a slot list.
		h.logger.Error("slot lookup failed", "error", err, "anchor", anchor)
		slotsJSON = ""
	}
	return h.responder.PresentSlots(ctx, message, query, slotsJSON, history)
}

func (h *Handler) handleBooking(ctx context.Context, message string, history []ChatMessage) (string, bool, error) {
	details, err := h.extractor.ExtractBooking(ctx, message, history)
	if err != nil {
		return "", false, err
	}

	if missing := details.MissingFields(); len(missing) > 0 {
		reply, err := h.responder.AskMissingInfo(ctx, message, IntentBookAppointment, missing, history)
		return reply, false, err
	}

	outcome, err := h.calendar.BookSlot(ctx, details.StartDatetime, details.EndDatetime, details.Name)
	if err != nil {
		h.logger.Error("booking call failed", "error", err)
		outcome = BookingOutcome{StatusMessage: fmt.Sprintf("General error: %s", err)}
	}

	reply, err := h.responder.BookingOutcome(ctx, message, details, outcome.StatusMessage, history)
	return reply, outcome.Success, err
}

// Reset handles POST /reset requests, clearing one session's state.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	if err := h.sessions.Reset(r.Context(), req.SessionID); err != nil {
		h.logger.Error("failed to reset session", "error", err, "session_id", req.SessionID)
		http.Error(w, "failed to reset session", http.StatusInternalServerError)
		return
	}

	writeChatJSON(w, http.StatusOK, map[string]string{
		"reply": "The conversation has been reset. You can start over.",
	})
}

// HealthCheck handles GET /health requests.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeChatJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeChatJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
